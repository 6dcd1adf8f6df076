package middleware

import (
	"net/http"

	"github.com/noscite/noscite-assistant/internal/api"
)

// MaxBodyBytes caps request bodies at limit bytes. A declared length over the
// cap is refused up front; a streamed body fails at decode time, where
// api.DecodeStatus turns it into a 413.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, api.TooLargeMessage)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
