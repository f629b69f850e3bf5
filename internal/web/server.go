// Package web serves the inventory JSON API, the health and metrics
// endpoints and the server-rendered inventory page.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/web/middleware"
)

// Service is the part of core.Service the HTTP layer uses.
type Service interface {
	ListProducts(ctx context.Context, f core.ListFilter) ([]core.Product, error)
	SearchProducts(ctx context.Context, term string) ([]core.Product, error)
	Categories(ctx context.Context) ([]string, error)
	ProductHistory(ctx context.Context, id int64) (core.ProductHistory, error)
	UpdateProduct(ctx context.Context, id int64, req core.ProductUpdate) (core.Product, error)
	ImportProducts(ctx context.Context, file core.ImportFile) (core.ImportResult, error)
	PrepareExport(ctx context.Context, format core.ExportFormat) (*core.Export, error)
	ImportStatus() core.ImportLimiterStatus
	Ping(ctx context.Context) error
}

var _ Service = (*core.Service)(nil)

// Server is the HTTP server of the inventory service.
type Server struct {
	service  Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*middleware.RateLimiter
}

// NewServer builds the router for service using cfg.
func NewServer(service Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Metrics)
	s.router.Use(middleware.Recover)

	if origins := s.cfg.Security.AllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(chimw.Compress(5))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/health/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	if prefix := s.cfg.Server.APIPrefix; prefix != "" {
		s.router.Route(prefix, s.apiRoutes)
	} else {
		s.router.Group(s.apiRoutes)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Route not found", Code: "NF000"})
	})
}

func (s *Server) apiRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

		r.Get("/products", s.handleListProducts)
		r.Get("/products/search", s.handleSearchProducts)
		r.Get("/products/export", s.handleExport)
		r.Put("/products/{id}", s.handleUpdateProduct)
		r.Get("/products/{id}/history", s.handleProductHistory)
		r.Get("/categories", s.handleCategories)
	})

	// Imports carry their own timeout in the service and a tighter rate limit.
	r.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			r.Use(s.newRateLimiter(s.cfg.Rate.ImportLimit).Handler)
		}
		r.Post("/products/import", s.handleImport)
	})
}

func (s *Server) newRateLimiter(perMinute int) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(perMinute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("http server listening", "addr", s.server.Addr, "api_prefix", s.cfg.Server.APIPrefix)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the request handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; frame-ancestors 'none'"

func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
