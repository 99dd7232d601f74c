package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pharmatrace/gateway/internal/analytics"
	"github.com/pharmatrace/gateway/internal/models"
)

func (s *Server) handleWorkerPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid worker id")
		return
	}
	recentOnly := false
	if v := r.URL.Query().Get("recentOnly"); v != "" {
		recentOnly, err = strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid recentOnly")
			return
		}
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	record, err := s.engine.WorkerPerformance(r.Context(), id, recentOnly, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role := q.Get("role")
	if role != "" {
		if _, err := models.ParseRole(role); err != nil {
			respondError(w, http.StatusBadRequest, "invalid role")
			return
		}
	}
	minShipments := 0
	if v := q.Get("minShipments"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "minShipments must be a non-negative integer")
			return
		}
		minShipments = n
	}
	minScore := 0.0
	if v := q.Get("minScore"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 100 {
			respondError(w, http.StatusBadRequest, "minScore must be within [0,100]")
			return
		}
		minScore = f
	}

	rankings, err := s.engine.Rank(r.Context(), analytics.RankFilter{
		Role:         role,
		MinShipments: minShipments,
		MinScore:     minScore,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalWorkers": len(rankings),
		"filters": map[string]interface{}{
			"role":         role,
			"minShipments": minShipments,
			"minScore":     minScore,
		},
		"rankings": rankings,
	})
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("workerIds")
	ids, err := parseIDList(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmp, err := s.engine.Compare(r.Context(), ids)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if _, err := models.ParseRole(role); err != nil {
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}
	productID, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	minScore := analytics.DefaultRecommendMinScore
	if v := r.URL.Query().Get("minScore"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 100 {
			respondError(w, http.StatusBadRequest, "minScore must be within [0,100]")
			return
		}
		minScore = f
	}
	topN := analytics.DefaultRecommendTopN
	if v := r.URL.Query().Get("topN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "topN must be a positive integer")
			return
		}
		topN = n
	}

	rec, err := s.engine.Recommend(r.Context(), productID, role, minScore, topN)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// parseIDList parses a comma-separated id list ("1,2,3"). Rejected before
// any ledger access when malformed.
func parseIDList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("workerIds required, e.g. workerIds=1,2,3")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("workerIds must be a comma-separated list of integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
