// Package api exposes the configuration services over HTTP REST.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/aideconf/internal/logging"
	"github.com/hugo-lorenzo-mato/aideconf/internal/probe"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
	"github.com/hugo-lorenzo-mato/aideconf/internal/service"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
)

// Server provides the HTTP REST API for configuration management.
type Server struct {
	router    chi.Router
	config    *service.ConfigService
	profiles  *service.ProfileService
	templates *service.TemplateService
	store     *store.Store
	registry  *schema.Registry
	probe     *probe.ProviderProbe
	logger    *logging.Logger

	corsOrigins []string
	timeout     time.Duration
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.timeout = d }
}

// WithProviderProbe overrides the probe used for API-key and model
// compatibility checks, letting tests point at a local server.
func WithProviderProbe(p *probe.ProviderProbe) ServerOption {
	return func(s *Server) { s.probe = p }
}

// NewServer creates a new API server.
func NewServer(cfg *service.ConfigService, profiles *service.ProfileService, templates *service.TemplateService, st *store.Store, registry *schema.Registry, opts ...ServerOption) *Server {
	s := &Server{
		config:    cfg,
		profiles:  profiles,
		templates: templates,
		store:     st,
		registry:  registry,
		probe:     probe.NewProviderProbe(),
		logger:    logging.NewNop(),
		timeout:   60 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(s.loggingMiddleware)

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.handleGetConfig)
			r.Put("/", s.handleUpdateConfig)
			r.Post("/validate", s.handleValidateConfig)
			r.Post("/reset", s.handleResetConfig)
			r.Get("/export", s.handleExportConfig)
			r.Post("/import", s.handleImportConfig)
			r.Get("/schema", s.handleGetSchema)
			r.Get("/categories", s.handleGetCategories)
			r.Get("/models", s.handleGetModels)
			r.Post("/models/compatibility", s.handleModelCompatibility)
			r.Post("/validate-key", s.handleValidateAPIKey)
			r.Get("/{category}", s.handleGetCategory)
			r.Patch("/{category}", s.handlePatchCategory)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.handleListProfiles)
			r.Post("/", s.handleCreateProfile)
			r.Get("/stats", s.handleProfileStats)
			r.Post("/import", s.handleImportProfile)
			r.Get("/diff", s.handleDiffProfiles)

			r.Route("/{profileID}", func(r chi.Router) {
				r.Get("/", s.handleGetProfile)
				r.Put("/", s.handleUpdateProfile)
				r.Delete("/", s.handleDeleteProfile)
				r.Post("/activate", s.handleActivateProfile)
				r.Post("/default", s.handleSetDefaultProfile)
				r.Get("/history", s.handleProfileHistory)
				r.Get("/export", s.handleExportProfile)
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleGlobalHistory)
			r.Post("/{entryID}/rollback", s.handleRollback)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/recommendations", s.handleTemplateRecommendations)
			r.Post("/compare", s.handleCompareTemplates)
			r.Post("/save-as", s.handleSaveAsTemplate)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetTemplate)
				r.Put("/", s.handleUpdateTemplate)
				r.Delete("/", s.handleDeleteTemplate)
				r.Post("/apply", s.handleApplyTemplate)
				r.Get("/export", s.handleExportTemplate)
			})
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", s.handleListBackups)
			r.Post("/", s.handleCreateBackup)
			r.Post("/{backupID}/restore", s.handleRestoreBackup)
			r.Delete("/{backupID}", s.handleDeleteBackup)
		})
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe starts the HTTP server and shuts it down when the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
