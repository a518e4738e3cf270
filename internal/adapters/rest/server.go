// Package rest exposes the core service over HTTP. The adapter owns request
// decoding, error-to-status mapping, and nothing else; all domain decisions
// stay in the core.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"culturecore/internal/core"
)

// Server routes HTTP requests to the core service.
type Server struct {
	svc     *core.Service
	logger  *slog.Logger
	router  chi.Router
	metrics http.Handler
}

// Option customizes server construction.
type Option func(*Server)

// WithMetricsHandler mounts a metrics exposition handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer constructs the HTTP adapter around a core service.
func NewServer(svc *core.Service, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the assembled HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/cultures", s.handleCreateCulture)
		r.Get("/cultures", s.handleListCultures)
		r.Get("/cultures/{id}/lots", s.handleListLots)
		r.Get("/cultures/{id}/banks", s.handleListBanks)

		r.Post("/lots", s.handleSeedLot)
		r.Get("/lots/{id}/containers", s.handleListContainers)
		r.Post("/lots/{id}/dispose", s.handleDisposeLot)

		r.Post("/banks/{id}/approve", s.handleApproveBank)
		r.Post("/banks/{id}/reject", s.handleRejectBank)
		r.Get("/banks/{id}/vials", s.handleListVials)

		r.Post("/nomenclatures", s.handleCreateNomenclature)
		r.Post("/batches", s.handleCreateBatch)
		r.Post("/media", s.handleCreateReadyMedium)
		r.Post("/positions", s.handleCreateStoragePosition)

		r.Get("/inventory/candidates", s.handleCandidates)
		r.Get("/inventory/low-stock", s.handleLowStock)
		r.Get("/inventory/aliquots", s.handleAliquots)

		r.Get("/operations", s.handleListOperations)
		r.Post("/operations/observe", s.handleObserve)
		r.Post("/operations/feed", s.handleFeed)
		r.Post("/operations/passage", s.handlePassage)
		r.Post("/operations/freeze", s.handleFreeze)
		r.Post("/operations/thaw", s.handleThaw)
		r.Post("/operations/{id}/photos", s.handleAttachPhoto)
	})
	return r
}
