// Package audit records security-relevant request rejections.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// EventType names a kind of security event.
type EventType string

const (
	EventInvalidInput      EventType = "invalid_input"
	EventInvalidSessionID  EventType = "invalid_session_id"
	EventInvalidEmail      EventType = "invalid_email"
	EventInvalidJSON       EventType = "invalid_json"
	EventRateLimitExceeded EventType = "rate_limit_exceeded"
	EventCaptchaMissing    EventType = "captcha_missing"
	EventCaptchaFailed     EventType = "captcha_failed"
	EventUnauthorized      EventType = "unauthorized_access"
	EventForbidden         EventType = "forbidden_access"
	EventUpstreamFailure   EventType = "upstream_failure"
)

// Logger emits one structured line per security event. It never fails.
type Logger struct {
	base zerolog.Logger
	now  func() time.Time
}

// NewLogger creates a Logger writing to base. Only the request id is taken
// from the context.
func NewLogger(base zerolog.Logger) *Logger {
	return &Logger{base: base, now: time.Now}
}

// Log records eventType with requester metadata from r, which may be nil.
func (l *Logger) Log(ctx context.Context, eventType EventType, details map[string]any, r *http.Request) {
	if l == nil {
		return
	}

	ev := l.base.Warn().
		Str("log_type", "security_event").
		Str("event_type", string(eventType)).
		Str("timestamp", l.now().UTC().Format(time.RFC3339))

	if id := logging.RequestID(ctx); id != "" {
		ev = ev.Str("request_id", id)
	}

	if r != nil {
		ev = ev.Str("ip", ClientIP(r)).
			Str("user_agent", r.UserAgent()).
			Str("referer", r.Referer())
	}
	if len(details) > 0 {
		ev = ev.Interface("details", details)
	}
	ev.Msg("security event")

	telemetry.AddBreadcrumb(ctx, "security", string(eventType))
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// remote address host.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
