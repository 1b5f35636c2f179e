package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stocktrackr/backend/internal/api/request"
	"github.com/stocktrackr/backend/internal/service"
	"github.com/stocktrackr/backend/internal/validation"
)

// EngineHandler handles manual engine run HTTP requests. All routes behind it
// are guarded by the API-key middleware.
type EngineHandler struct {
	scheduler    *service.Scheduler
	priceService *service.PriceService
}

// NewEngineHandler creates a new EngineHandler
func NewEngineHandler(scheduler *service.Scheduler, priceService *service.PriceService) *EngineHandler {
	return &EngineHandler{
		scheduler:    scheduler,
		priceService: priceService,
	}
}

// Recompute triggers the snapshot pass followed by the metric pass for one
// date, outside the cron cadence. Runs for a date already in progress return
// 409 Conflict.
//
// Endpoint: POST /api/engine/recompute
func (h *EngineHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req request.RecomputeRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body", "detail": err.Error()})
			return
		}
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := validation.ParseDate(req.Date)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date", "detail": err.Error()})
			return
		}
		date = parsed
	}

	report, err := h.scheduler.RunSnapshotPass(r.Context(), date)
	if err != nil {
		respondServiceError(w, "Snapshot run failed", err)
		return
	}

	if err := h.scheduler.RunMetricPass(date); err != nil {
		respondServiceError(w, "Metric run failed", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// RefreshPrices triggers the market-data refresh pass.
//
// Endpoint: POST /api/engine/prices/refresh
func (h *EngineHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.priceService.RefreshPrices(r.Context())
	if err != nil {
		respondServiceError(w, "Price refresh failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"refreshed": refreshed})
}

// BackfillPrices loads historical daily bars for one ticker.
//
// Endpoint: POST /api/engine/prices/backfill
func (h *EngineHandler) BackfillPrices(w http.ResponseWriter, r *http.Request) {
	var req request.BackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body", "detail": err.Error()})
		return
	}

	startDate, err := validation.ParseDate(req.StartDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid startDate", "detail": err.Error()})
		return
	}
	endDate, err := validation.ParseDate(req.EndDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid endDate", "detail": err.Error()})
		return
	}

	loaded, err := h.priceService.BackfillPrices(r.Context(), req.Ticker, startDate, endDate)
	if err != nil {
		respondServiceError(w, "Price backfill failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"loaded": loaded})
}
