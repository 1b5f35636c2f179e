package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrackr/backend/internal/service"
)

// LeaderboardHandler handles leaderboard HTTP requests
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// Leaderboard returns the top public portfolios by the requested metric.
// Query parameter: limit, defaulting to 10.
//
// Endpoint: GET /api/leaderboard/{metric}
func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit", "detail": err.Error()})
			return
		}
		limit = parsed
	}

	entries, err := h.leaderboardService.TopPortfolios(metric, limit)
	if err != nil {
		respondServiceError(w, "Failed to assemble leaderboard", err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}
