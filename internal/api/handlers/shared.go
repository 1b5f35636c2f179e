package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/stocktrackr/backend/internal/apperrors"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondServiceError maps service-layer sentinel errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	errorResponse := map[string]string{
		"error":  message,
		"detail": err.Error(),
	}
	respondJSON(w, statusForError(err), errorResponse)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrStockNotFound),
		errors.Is(err, apperrors.ErrSnapshotNotFound),
		errors.Is(err, apperrors.ErrMetricNotFound),
		errors.Is(err, apperrors.ErrTradeNotFound),
		errors.Is(err, apperrors.ErrNoTradesFound),
		errors.Is(err, apperrors.ErrPriceUnavailable):
		return http.StatusNotFound

	case errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrNegativeQuantity),
		errors.Is(err, apperrors.ErrInsufficientQuantity),
		errors.Is(err, apperrors.ErrUnknownActionType),
		errors.Is(err, apperrors.ErrUnknownMetric),
		errors.Is(err, apperrors.ErrBackdatedActivity):
		return http.StatusBadRequest

	case errors.Is(err, apperrors.ErrStaleRun):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
