package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/noscite/noscite-assistant/internal/api"
	"github.com/noscite/noscite-assistant/internal/audit"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/security"
	"github.com/noscite/noscite-assistant/internal/service"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// CaptchaHeader carries the widget token of the contact form.
const CaptchaHeader = "X-Captcha-Token"

type ContactService interface {
	Submit(ctx context.Context, in service.ContactInput) (*domain.ContactSubmission, error)
}

type ContactHandler struct {
	svc    ContactService
	events *audit.Logger
}

func NewContactHandler(svc ContactService, events *audit.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, events: events}
}

type ContactRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Message *string `json:"message"`
}

type ContactResponse struct {
	Success bool `json:"success"`
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := strings.TrimSpace(r.Header.Get(CaptchaHeader))
	if token == "" {
		h.events.Log(ctx, audit.EventCaptchaMissing, nil, r)
		api.HandleError(w, domain.ErrCaptchaMissing)
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.events.Log(ctx, audit.EventInvalidJSON, nil, r)
		status, msg := api.DecodeStatus(err)
		api.Error(w, status, msg)
		return
	}

	in, eventType, field, err := validateContact(req)
	if err != nil {
		details := map[string]any{}
		if field != "" {
			details["field"] = field
		}
		h.events.Log(ctx, eventType, details, r)
		api.HandleError(w, err)
		return
	}
	in.CaptchaToken = token
	in.ClientIP = audit.ClientIP(r)

	if _, err := h.svc.Submit(ctx, in); err != nil {
		h.handleSubmitError(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, ContactResponse{Success: true})
}

func validateContact(req ContactRequest) (service.ContactInput, audit.EventType, string, error) {
	var in service.ContactInput
	var err error

	if in.Name, err = security.ValidateText(req.Name, 2, 100, "name"); err != nil {
		return in, audit.EventInvalidInput, "name", err
	}
	if in.Email, err = security.ValidateEmail(req.Email); err != nil {
		return in, audit.EventInvalidEmail, "email", err
	}
	if in.Phone, err = security.ValidatePhone(req.Phone); err != nil {
		return in, audit.EventInvalidInput, "phone", err
	}
	if req.Company != nil {
		if in.Company, err = security.ValidateText(req.Company, 0, 100, "company"); err != nil {
			return in, audit.EventInvalidInput, "company", err
		}
	}
	if in.Message, err = security.ValidateText(req.Message, 10, 2000, "message"); err != nil {
		return in, audit.EventInvalidInput, "message", err
	}
	return in, "", "", nil
}

func (h *ContactHandler) handleSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, domain.ErrCaptchaMissing):
		h.events.Log(ctx, audit.EventCaptchaMissing, nil, r)
	case errors.Is(err, domain.ErrCaptchaFailed):
		h.events.Log(ctx, audit.EventCaptchaFailed, nil, r)
	case errors.Is(err, domain.ErrRateLimited):
		h.events.Log(ctx, audit.EventRateLimitExceeded, map[string]any{"endpoint": "contact"}, r)
	case domain.CodeOf(err) == domain.ErrCodeValidation:
		h.events.Log(ctx, audit.EventInvalidInput, nil, r)
	case api.DomainErrorToHTTP(err) >= http.StatusInternalServerError:
		h.events.Log(ctx, audit.EventUpstreamFailure, map[string]any{
			"endpoint": "contact",
			"code":     domain.CodeOf(err),
		}, r)
		telemetry.CaptureError(ctx, err)
	}
	api.HandleError(w, err)
}
