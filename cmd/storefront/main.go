// cmd/storefront/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "b7pizza/internal/infra/config"
	"b7pizza/internal/platform/di"
	"b7pizza/internal/platform/logging"
)

// atomicHandler swaps the served handler once the container is ready.
type atomicHandler struct {
	v atomic.Value // http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.v.Load().(http.Handler).ServeHTTP(w, r)
}

func main() {
	cfg, warns, err := appcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[boot] config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[boot] logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	boot := log.Named("boot")
	for _, w := range warns {
		boot.Warn(w)
	}

	// healthz answers while the container is still wiring
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	switcher := newAtomicHandler(healthMux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           switcher,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var contHolder atomic.Pointer[di.Container]

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		boot.Info("shutting down", zap.String("signal", sig.String()))
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			boot.Warn("server shutdown", zap.Error(err))
		}
		if cont := contHolder.Swap(nil); cont != nil {
			cont.Close()
		}
		close(idleConnsClosed)
	}()

	go func() {
		boot.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			boot.Fatal("server error", zap.Error(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────
	// DI init; then swap to the full router
	// ─────────────────────────────────────────────────────────────
	go func() {
		initCtx, cancel := context.WithTimeout(runCtx, 2*time.Minute)
		defer cancel()

		cont, err := di.NewContainer(initCtx, cfg, log)
		if err != nil {
			boot.Error("di init failed; serving /healthz only", zap.Error(err))
			return
		}
		contHolder.Store(cont)
		if runCtx.Err() != nil {
			if c := contHolder.Swap(nil); c != nil {
				c.Close()
			}
			return
		}

		go cont.Registry.Run(runCtx)
		go cont.Catalog.RunRefresh(runCtx, cfg.CatalogRefresh)
		switcher.Store(cont.Handler())
		boot.Info("storefront routes ready")
	}()

	<-idleConnsClosed
	boot.Info("server stopped")
}
