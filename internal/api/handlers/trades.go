package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/service"
)

// TradeHandler handles trade ranking HTTP requests
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// RankPortfolioTrades recomputes and returns the best/worst closed trade
// for one portfolio.
//
// Endpoint: POST /api/portfolio/{uuid}/trades/rank
func (h *TradeHandler) RankPortfolioTrades(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	ranked, err := h.tradeService.RankTrades(model.TradeScope{PortfolioID: portfolioID})
	if err != nil {
		respondServiceError(w, "Failed to rank trades", err)
		return
	}

	respondJSON(w, http.StatusOK, ranked)
}

// RankUserTrades recomputes and returns the best/worst closed trade across
// every portfolio owned by one user.
//
// Endpoint: POST /api/user/{uuid}/trades/rank
func (h *TradeHandler) RankUserTrades(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uuid")

	ranked, err := h.tradeService.RankTrades(model.TradeScope{UserID: userID})
	if err != nil {
		respondServiceError(w, "Failed to rank trades", err)
		return
	}

	respondJSON(w, http.StatusOK, ranked)
}
