// Package api Message Store REST API
//
// @title           Message Store REST API
// @version         1.0.0
// @description     REST API for a durable store of small text messages.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
)

const (
	shutdownTimeout = 10 * time.Second
	statsInterval   = 30 * time.Second
)

// Routes builds the HTTP handler with all routes configured
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(requestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link", "Location", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", s.metrics.InstrumentHandler("GET", "/api/v1/messages", s.handleListMessages))
			r.Post("/", s.metrics.InstrumentHandler("POST", "/api/v1/messages", s.handleAddMessage))
			r.Get("/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/messages/{id}", s.handleGetMessage))
			r.Put("/{id}", s.metrics.InstrumentHandler("PUT", "/api/v1/messages/{id}", s.handleUpdateMessage))
			r.Delete("/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/messages/{id}", s.handleDeleteMessage))
		})
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.log.Error("failed to generate swagger doc", "error", err)
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	return r
}

// Run serves the API on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	SwaggerInfo.Host = s.config.Addr

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	var updater sync.WaitGroup
	updater.Add(1)
	go func() {
		defer updater.Done()
		s.startMetricsUpdater(ctx)
	}()
	// the updater reads the store, so it must stop before the caller closes it
	defer updater.Wait()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting message store API", "addr", s.config.Addr, "auth", s.config.APIKey != "")
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

	s.log.Info("shutting down message store API")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startMetricsUpdater refreshes the store gauges until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		s.refreshStoreMetrics(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) refreshStoreMetrics(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("failed to collect store stats", "error", err)
		}
		return
	}
	var disk uint64
	if s.storage != nil {
		disk = s.storage.Stats().DiskSpaceUsage
	}
	s.metrics.UpdateStoreStats(stats.Messages, stats.LastID, disk)
}
