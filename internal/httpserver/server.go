package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pharmatrace/gateway/internal/analytics"
	"github.com/pharmatrace/gateway/internal/config"
	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/mirror"
	"github.com/pharmatrace/gateway/internal/service"
)

type Server struct {
	cfg    config.Config
	svc    *service.Service
	engine *analytics.Engine
	store  mirror.Store
	chain  ledger.Reader
}

func New(cfg config.Config, svc *service.Service, engine *analytics.Engine, store mirror.Store, chain ledger.Reader) *Server {
	return &Server{cfg: cfg, svc: svc, engine: engine, store: store, chain: chain}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/workers", func(r chi.Router) {
		r.With(s.writeAuth).Post("/add", s.handleAddWorker)
		r.Get("/list", s.handleListWorkers)
	})
	r.Route("/products", func(r chi.Router) {
		r.With(s.writeAuth).Post("/add", s.handleAddProduct)
		r.Get("/list", s.handleListProducts)
		r.Get("/history/{id}", s.handleProductHistory)
	})
	r.Route("/status", func(r chi.Router) {
		r.With(s.writeAuth).Post("/update", s.handleUpdateStatus)
		r.Get("/track/{pid}", s.handleTrackStatus)
	})
	r.Route("/performance", func(r chi.Router) {
		r.Get("/worker/{id}", s.handleWorkerPerformance)
		r.Get("/rankings", s.handleRankings)
		r.Get("/comparison", s.handleComparison)
		r.Get("/recommendations/{role}/{productId}", s.handleRecommendations)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]interface{}{
		"ok":   true,
		"time": time.Now().UTC(),
	}
	if err := s.store.Ping(ctx); err != nil {
		status["ok"] = false
		status["db"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps the error taxonomy onto HTTP statuses:
// validation 400, unknown ids 404, unreachable ledger 503.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
