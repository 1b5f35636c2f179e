package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrackr/backend/internal/service"
)

// MetricHandler handles portfolio metric HTTP requests
type MetricHandler struct {
	metricService *service.MetricService
}

// NewMetricHandler creates a new MetricHandler
func NewMetricHandler(metricService *service.MetricService) *MetricHandler {
	return &MetricHandler{
		metricService: metricService,
	}
}

// Metrics returns the portfolio's full metric history, oldest first.
//
// Endpoint: GET /api/portfolio/{uuid}/metrics
func (h *MetricHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	metrics, err := h.metricService.GetMetricsOnPortfolioID(portfolioID)
	if err != nil {
		respondServiceError(w, "Failed to retrieve metrics", err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// CurrentMetric returns the portfolio's most recent metric row.
//
// Endpoint: GET /api/portfolio/{uuid}/metrics/current
func (h *MetricHandler) CurrentMetric(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	metric, err := h.metricService.GetCurrentMetric(portfolioID)
	if err != nil {
		respondServiceError(w, "Failed to retrieve current metric", err)
		return
	}

	respondJSON(w, http.StatusOK, metric)
}
