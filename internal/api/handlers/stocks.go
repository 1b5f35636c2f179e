package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrackr/backend/internal/api/request"
	"github.com/stocktrackr/backend/internal/service"
	"github.com/stocktrackr/backend/internal/validation"
)

// StockHandler handles stock registry HTTP requests
type StockHandler struct {
	priceService *service.PriceService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(priceService *service.PriceService) *StockHandler {
	return &StockHandler{
		priceService: priceService,
	}
}

// Stocks lists every stock known to the system.
func (h *StockHandler) Stocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.priceService.GetStocks()
	if err != nil {
		respondServiceError(w, "Failed to retrieve stocks", err)
		return
	}

	respondJSON(w, http.StatusOK, stocks)
}

// Quote returns a stock's close price from the local store: the latest known
// close, or the most recent on or before the optional ?date= parameter.
func (h *StockHandler) Quote(w http.ResponseWriter, r *http.Request) {
	stockID := chi.URLParam(r, "uuid")

	var onDate time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := validation.ParseDate(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date", "detail": err.Error()})
			return
		}
		onDate = parsed
	}

	quote, err := h.priceService.GetQuote(stockID, onDate)
	if err != nil {
		respondServiceError(w, "Failed to resolve quote", err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// CreateStock registers a new tradable instrument.
func (h *StockHandler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req request.CreateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body", "detail": err.Error()})
		return
	}
	if req.Ticker == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "ticker is required"})
		return
	}

	stock, err := h.priceService.CreateStock(req.Ticker, req.Name, req.Exchange, req.Currency)
	if err != nil {
		respondServiceError(w, "Failed to create stock", err)
		return
	}

	respondJSON(w, http.StatusCreated, stock)
}
