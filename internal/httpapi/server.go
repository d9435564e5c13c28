// Package httpapi serves the derivative engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes bounds the size of a request body.
const maxBodyBytes = 32 << 20

const shutdownTimeout = 10 * time.Second

// Server holds the defaults and stores shared by every request.
type Server struct {
	defaults schema.FeaturizationParams
	nBins    int
	mgr      contract.CacheManager
	router   *chi.Mux
}

// NewServer builds the router for cfg. mgr may be nil.
func NewServer(cfg *contract.Config, mgr contract.CacheManager) *Server {
	s := &Server{
		defaults: cfg.FeaturizationParams(),
		nBins:    cfg.NBins,
		mgr:      mgr,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/derivative", s.handleDerivative)
		r.Post("/distance", s.handleDistance)
	})

	s.router = r
	return s
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on cfg.ServeAddr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	srv := &http.Server{
		Addr:              cfg.ServeAddr,
		Handler:           NewServer(cfg, mgr).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ServeAddr).Info("HTTP server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
