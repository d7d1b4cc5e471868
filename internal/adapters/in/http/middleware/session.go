// internal/adapters/in/http/middleware/session.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"b7pizza/internal/platform/session"
)

type storefrontKey struct{}

// StorefrontResolver finds or builds the storefront for a cookie value.
type StorefrontResolver interface {
	Resolve(ctx context.Context, id string) (*session.Storefront, bool, error)
}

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	MaxAge     time.Duration
}

// Session attaches the caller's storefront to the request context and issues
// the session cookie whenever a new storefront was built.
func Session(res StorefrontResolver, opts SessionOptions, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	name := strings.TrimSpace(opts.CookieName)
	if name == "" {
		name = "b7_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(name); err == nil {
				id = c.Value
			}

			sf, created, err := res.Resolve(r.Context(), id)
			if err != nil {
				log.Error("session resolve failed", zap.Error(err))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"session_unavailable"}`))
				return
			}

			if created || sf.ID() != id {
				cookie := &http.Cookie{
					Name:     name,
					Value:    sf.ID(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   isHTTPS(r),
				}
				if opts.MaxAge > 0 {
					cookie.MaxAge = int(opts.MaxAge / time.Second)
				}
				http.SetCookie(w, cookie)
			}

			next.ServeHTTP(w, r.WithContext(WithStorefront(r.Context(), sf)))
		})
	}
}

func WithStorefront(ctx context.Context, sf *session.Storefront) context.Context {
	return context.WithValue(ctx, storefrontKey{}, sf)
}

// StorefrontFrom returns the storefront set by Session.
func StorefrontFrom(ctx context.Context) (*session.Storefront, bool) {
	sf, ok := ctx.Value(storefrontKey{}).(*session.Storefront)
	return sf, ok && sf != nil
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
