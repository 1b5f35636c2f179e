package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if id == "" {
		return apperrors.ErrEmptyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ParseDate parses a date string in "2006-01-02" or RFC3339 format, normalized to UTC.
func ParseDate(str string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", str)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return parsed.UTC(), nil
}

// ValidateMetric checks a leaderboard metric name.
func ValidateMetric(metric string) error {
	switch metric {
	case model.MetricTotal, model.MetricDaily, model.MetricMonthly, model.MetricHourly:
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrUnknownMetric, metric)
}

// ValidateActionType checks an investment activity action.
func ValidateActionType(action string) error {
	switch action {
	case model.ActionBuy, model.ActionSell, model.ActionAdd:
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrUnknownActionType, action)
}
