package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/noscite/noscite-assistant/internal/api"
	"github.com/noscite/noscite-assistant/internal/audit"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/pagination"
	"github.com/noscite/noscite-assistant/internal/security"
	"github.com/noscite/noscite-assistant/internal/service"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

type KnowledgeSyncService interface {
	Sync(ctx context.Context, opts service.SyncOptions) (*service.SyncResult, error)
}

type DocumentService interface {
	Ingest(ctx context.Context, in service.DocumentInput) (*service.DocumentResult, error)
}

type KnowledgeLister interface {
	List(ctx context.Context, input service.ListKnowledgeInput) (*service.ListKnowledgeOutput, error)
}

// KnowledgeHandler serves the admin knowledge endpoints.
type KnowledgeHandler struct {
	sync      KnowledgeSyncService
	documents DocumentService
	lister    KnowledgeLister
	events    *audit.Logger
}

func NewKnowledgeHandler(sync KnowledgeSyncService, documents DocumentService, lister KnowledgeLister, events *audit.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{sync: sync, documents: documents, lister: lister, events: events}
}

type SyncResponse struct {
	Success bool `json:"success"`
	*service.SyncResult
}

func (h *KnowledgeHandler) Sync(w http.ResponseWriter, r *http.Request) {
	prune := false
	if raw := r.URL.Query().Get("prune"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "parametro prune non valido")
			return
		}
		prune = parsed
	}

	result, err := h.sync.Sync(r.Context(), service.SyncOptions{Prune: prune})
	if err != nil {
		h.upstreamFailure(r, "knowledge-sync", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, SyncResponse{Success: true, SyncResult: result})
}

type DocumentRequest struct {
	Title    *string `json:"title"`
	Content  string  `json:"content"`
	Filename string  `json:"filename"`
}

type DocumentResponse struct {
	Success bool `json:"success"`
	*service.DocumentResult
}

func (h *KnowledgeHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.events.Log(ctx, audit.EventInvalidJSON, nil, r)
		status, msg := api.DecodeStatus(err)
		api.Error(w, status, msg)
		return
	}

	title, err := security.ValidateText(req.Title, 1, 200, "title")
	if err != nil {
		h.events.Log(ctx, audit.EventInvalidInput, map[string]any{"field": "title"}, r)
		api.HandleError(w, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		api.HandleError(w, domain.NewValidationError("content è obbligatorio"))
		return
	}

	result, err := h.documents.Ingest(ctx, service.DocumentInput{
		Title:    title,
		Content:  req.Content,
		Filename: req.Filename,
	})
	if err != nil {
		h.upstreamFailure(r, "knowledge-documents", err)
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, DocumentResponse{Success: true, DocumentResult: result})
}

type KnowledgeItem struct {
	SourceID    string `json:"sourceId"`
	Title       string `json:"title"`
	ContentType string `json:"contentType"`
	Chars       int    `json:"chars"`
	UpdatedAt   string `json:"updatedAt"`
}

func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := pagination.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	out, err := h.lister.List(r.Context(), service.ListKnowledgeInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]KnowledgeItem, len(out.Items))
	for i, e := range out.Items {
		items[i] = KnowledgeItem{
			SourceID:    e.SourceID,
			Title:       e.Title,
			ContentType: string(e.ContentType),
			Chars:       utf8.RuneCountInString(e.Content),
			UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}

	api.Success(w, http.StatusOK, pagination.PageResult[KnowledgeItem]{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}

func (h *KnowledgeHandler) upstreamFailure(r *http.Request, endpoint string, err error) {
	if api.DomainErrorToHTTP(err) < http.StatusInternalServerError {
		return
	}
	h.events.Log(r.Context(), audit.EventUpstreamFailure, map[string]any{
		"endpoint": endpoint,
		"code":     domain.CodeOf(err),
	}, r)
	telemetry.CaptureError(r.Context(), err)
}
