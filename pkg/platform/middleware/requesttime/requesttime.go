// Package requesttime captures one "now" per HTTP request so every timestamp
// produced while serving it agrees.
package requesttime

import (
	"net/http"
	"time"

	"policyregistry/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// Precision matches the microsecond resolution of stored timestamps, so a
// time computed from the request clock reads back unchanged.
const Precision = time.Microsecond

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC().Truncate(Precision))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
