package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noscite/noscite-assistant/internal/api"
	"github.com/noscite/noscite-assistant/internal/audit"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/security"
	"github.com/noscite/noscite-assistant/internal/service"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

const (
	MaxChatMessageLength = 1000

	// ChatFallbackResponse is shown in the widget when the turn failed.
	ChatFallbackResponse = "Mi dispiace, si è verificato un problema. Riprova tra qualche istante oppure scrivici dalla pagina contatti."
)

type ChatService interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatOutput, error)
}

type ChatHandler struct {
	svc    ChatService
	events *audit.Logger
}

func NewChatHandler(svc ChatService, events *audit.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, events: events}
}

type ChatRequest struct {
	Message   *string `json:"message"`
	SessionID *string `json:"sessionId"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type chatErrorResponse struct {
	Error    string `json:"error"`
	Response string `json:"response"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.events.Log(ctx, audit.EventInvalidJSON, nil, r)
		status, msg := api.DecodeStatus(err)
		api.Error(w, status, msg)
		return
	}

	message, err := security.ValidateText(req.Message, 1, MaxChatMessageLength, "message")
	if err != nil {
		h.events.Log(ctx, audit.EventInvalidInput, map[string]any{"field": "message"}, r)
		api.HandleError(w, err)
		return
	}

	sessionID, err := security.ValidateSessionID(req.SessionID)
	if err != nil {
		h.events.Log(ctx, audit.EventInvalidSessionID, nil, r)
		api.HandleError(w, err)
		return
	}

	out, err := h.svc.Chat(ctx, service.ChatInput{
		Message:   message,
		SessionID: sessionID,
		ClientIP:  audit.ClientIP(r),
	})
	if err != nil {
		h.handleChatError(w, r, sessionID, err)
		return
	}

	api.JSON(w, http.StatusOK, ChatResponse{Response: out.Response, SessionID: out.SessionID})
}

func (h *ChatHandler) handleChatError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	ctx := r.Context()
	status := api.DomainErrorToHTTP(err)

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		h.events.Log(ctx, audit.EventRateLimitExceeded, map[string]any{
			"endpoint":   domain.EndpointChat,
			"session_id": sessionID,
		}, r)
		api.HandleError(w, err)
	case status >= http.StatusInternalServerError:
		h.events.Log(ctx, audit.EventUpstreamFailure, map[string]any{
			"endpoint": domain.EndpointChat,
			"code":     domain.CodeOf(err),
		}, r)
		telemetry.CaptureError(ctx, err)
		api.JSON(w, http.StatusInternalServerError, chatErrorResponse{
			Error:    api.GenericErrorMessage,
			Response: ChatFallbackResponse,
		})
	default:
		api.HandleError(w, err)
	}
}
