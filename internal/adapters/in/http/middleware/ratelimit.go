// internal/adapters/in/http/middleware/ratelimit.go
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"b7pizza/internal/platform/logging"
)

// AuthRateLimit rejects auth submissions over the storefront's budget with 429.
// Requests without a storefront pass through.
func AuthRateLimit(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sf, ok := StorefrontFrom(r.Context())
			if ok && !sf.AllowAuth() {
				log.Info("auth rate limited", zap.String("session", logging.MaskID(sf.ID())), zap.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
