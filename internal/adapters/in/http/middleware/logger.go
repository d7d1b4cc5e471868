// internal/adapters/in/http/middleware/logger.go
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger writes one line per request. 5xx are logged at error level.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			switch {
			case ww.Status() >= 500:
				log.Error("request", fields...)
			case r.URL.Path == "/healthz":
				log.Debug("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}
