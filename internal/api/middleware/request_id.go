package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/noscite/noscite-assistant/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request with an id, echoed in the response header. An
// inbound id is kept only when it is short printable ASCII, so it can be
// written to log lines verbatim. The context also carries a zerolog logger
// bound to the id, which logging.FromContext returns.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !acceptableRequestID(id) {
			id = uuid.NewString()
		}

		logger := log.Logger.With().Str("request_id", id).Logger()
		ctx := logger.WithContext(logging.WithRequestID(r.Context(), id))

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func acceptableRequestID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// GetRequestID returns the request id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	return logging.RequestID(ctx)
}
