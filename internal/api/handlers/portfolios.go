package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrackr/backend/internal/api/request"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
	"github.com/stocktrackr/backend/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	activityService  *service.ActivityService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, activityService *service.ActivityService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		activityService:  activityService,
	}
}

// Portfolios lists portfolios. Query parameters: user (owner ID) and
// public=true restrict the result.
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	filter := model.PortfolioFilter{
		PublicOnly: r.URL.Query().Get("public") == "true",
		UserID:     r.URL.Query().Get("user"),
	}

	portfolios, err := h.portfolioService.GetPortfolios(filter)
	if err != nil {
		respondServiceError(w, "Failed to retrieve portfolios", err)
		return
	}

	respondJSON(w, http.StatusOK, portfolios)
}

// Portfolio retrieves a single portfolio by ID.
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	portfolio, err := h.portfolioService.GetPortfolio(portfolioID)
	if err != nil {
		respondServiceError(w, "Failed to retrieve portfolio", err)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// CreatePortfolio creates a portfolio for an existing user.
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body", "detail": err.Error()})
		return
	}
	if req.UserID == "" || req.Name == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "userId and name are required"})
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req.UserID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		respondServiceError(w, "Failed to create portfolio", err)
		return
	}

	respondJSON(w, http.StatusCreated, portfolio)
}

// Snapshots returns a portfolio's position snapshots for one date.
// Query parameter: date ("2006-01-02"), defaulting to today.
func (h *PortfolioHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	date := time.Now().UTC()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := repository.ParseTime(dateStr)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date", "detail": err.Error()})
			return
		}
		date = parsed
	}

	snapshots, err := h.portfolioService.GetSnapshotsOnDate(portfolioID, date)
	if err != nil {
		respondServiceError(w, "Failed to retrieve snapshots", err)
		return
	}

	respondJSON(w, http.StatusOK, snapshots)
}

// Activities returns a portfolio's activity ledger, oldest first.
func (h *PortfolioHandler) Activities(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	activities, err := h.portfolioService.GetActivities(portfolioID)
	if err != nil {
		respondServiceError(w, "Failed to retrieve activities", err)
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// RecordActivity records a buy/sell/add action against the portfolio on
// behalf of the user named in the request body.
func (h *PortfolioHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req request.RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body", "detail": err.Error()})
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := repository.ParseTime(req.Date)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date", "detail": err.Error()})
			return
		}
		date = parsed
	}

	activity, err := h.activityService.RecordActivity(req.UserID, service.ActivityInput{
		PortfolioID:   portfolioID,
		StockID:       req.StockID,
		ActionType:    req.ActionType,
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
		Date:          date,
	})
	if err != nil {
		respondServiceError(w, "Failed to record activity", err)
		return
	}

	respondJSON(w, http.StatusCreated, activity)
}

// CreateUser creates a new user account.
func (h *PortfolioHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body", "detail": err.Error()})
		return
	}
	if req.Username == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	user, err := h.portfolioService.CreateUser(req.Username, req.DisplayName)
	if err != nil {
		respondServiceError(w, "Failed to create user", err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}
