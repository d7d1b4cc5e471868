// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"b7pizza/internal/adapters/in/http/handler"
	"b7pizza/internal/adapters/in/http/middleware"
	"b7pizza/internal/application/catalog"
)

// RouterDeps collects what the storefront routes need, injected from main.go.
type RouterDeps struct {
	Sessions       middleware.StorefrontResolver
	Catalog        *catalog.Loader
	CookieName     string
	CookieMaxAge   time.Duration
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter mounts /healthz and the /api storefront routes.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	httpLog := log.Named("http")

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(httpLog))
	r.Use(middleware.Recover(httpLog))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	catalogH := handler.NewCatalogHandler(deps.Catalog, log)
	cartH := handler.NewCartHandler()
	authH := handler.NewAuthHandler(log)
	eventsH := handler.NewEventsHandler(origins, log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", catalogH.List)
		r.Get("/catalog/{id}", catalogH.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Sessions, middleware.SessionOptions{
				CookieName: deps.CookieName,
				MaxAge:     deps.CookieMaxAge,
			}, httpLog))

			r.Get("/cart", cartH.Get)
			r.Delete("/cart", cartH.Clear)
			r.Post("/cart/items", cartH.AddItem)
			r.Delete("/cart/items/{productId}", cartH.RemoveItem)

			r.Get("/auth", authH.Get)
			r.Post("/auth/dialog", authH.Dialog)
			r.Post("/auth/back", authH.Back)
			r.Post("/auth/logout", authH.Logout)
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthRateLimit(httpLog))
				r.Post("/auth/email", authH.Email)
				r.Post("/auth/signin", authH.SignIn)
				r.Post("/auth/signup", authH.SignUp)
			})

			r.Get("/events", eventsH.ServeHTTP)
		})
	})

	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
