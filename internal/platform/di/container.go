// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	httpin "b7pizza/internal/adapters/in/http"
	httpout "b7pizza/internal/adapters/out/http"
	"b7pizza/internal/application/catalog"
	"b7pizza/internal/application/pricing"
	"b7pizza/internal/application/resolver"
	appcfg "b7pizza/internal/infra/config"
	"b7pizza/internal/platform/session"
)

// Container is everything main.go needs: the HTTP handler, the session
// registry to sweep and the resources to close.
type Container struct {
	Config   *appcfg.Config
	Infra    *Infra
	Backend  *httpout.BackendClient
	Catalog  *catalog.Loader
	Engine   *pricing.Engine
	Registry *session.Registry

	log *zap.Logger
}

// NewContainer wires the storefront from cfg.
func NewContainer(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}

	inf, err := NewInfra(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	engine, err := pricing.NewEngine(pricing.Config{
		Shipping: cfg.ShippingFlatRate,
		Currency: cfg.Currency,
		Locale:   cfg.Locale,
	})
	if err != nil {
		inf.Close()
		return nil, fmt.Errorf("di: pricing engine: %w", err)
	}

	backend := httpout.NewBackendClient(cfg.BackendBaseURL, cfg.BackendTimeout, log)
	images := resolver.NewImageURLResolver(cfg.AssetBaseURL, "")
	loader := catalog.NewLoader(catalog.NewCache(), backend, images, log)

	deps := session.Deps{
		Store:     inf.TokenStore,
		Gateway:   backend,
		Catalog:   loader,
		Engine:    engine,
		AuthLimit: rate.Limit(cfg.AuthRateLimit),
		AuthBurst: cfg.AuthRateBurst,
		Log:       log,
	}
	reg, err := session.NewRegistry(func(ctx context.Context, id string) (*session.Storefront, error) {
		return session.NewStorefront(ctx, id, deps)
	}, cfg.SessionIdleTTL, log)
	if err != nil {
		inf.Close()
		return nil, fmt.Errorf("di: session registry: %w", err)
	}

	log.Named("di").Info("container ready",
		zap.String("backend", cfg.BackendBaseURL),
		zap.String("token_store", cfg.TokenStore),
		zap.String("currency", cfg.Currency),
		zap.String("locale", cfg.Locale),
	)

	return &Container{
		Config:   cfg,
		Infra:    inf,
		Backend:  backend,
		Catalog:  loader,
		Engine:   engine,
		Registry: reg,
		log:      log,
	}, nil
}

// Handler returns the storefront router.
func (c *Container) Handler() http.Handler {
	return httpin.NewRouter(httpin.RouterDeps{
		Sessions:       c.Registry,
		Catalog:        c.Catalog,
		CookieName:     c.Config.SessionCookieName,
		CookieMaxAge:   c.Config.TokenTTL,
		AllowedOrigins: c.Config.AllowedOrigins,
		Log:            c.log,
	})
}

// Close disposes sessions and releases clients.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Registry != nil {
		c.Registry.Close()
	}
	c.Infra.Close()
}
