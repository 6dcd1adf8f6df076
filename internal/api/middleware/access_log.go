package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/noscite/noscite-assistant/internal/audit"
)

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// AccessLog emits one structured log line per HTTP request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}

		ev.Str("log_type", "access").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", rec.bytes).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("request_id", GetRequestID(r.Context())).
			Str("user_id", userIDFromRequest(r)).
			Str("remote_addr", audit.ClientIP(r)).
			Str("user_agent", r.UserAgent()).
			Msg("request")
	})
}
