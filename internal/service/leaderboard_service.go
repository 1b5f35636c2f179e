package service

import (
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
	"github.com/stocktrackr/backend/internal/validation"
)

// defaultLeaderboardLimit is the top-N size when the caller doesn't ask for one.
const defaultLeaderboardLimit = 10

// LeaderboardService assembles top-N portfolio rankings from the latest
// committed metric rows. Pure read side: it joins, never mutates.
type LeaderboardService struct {
	metricRepo *repository.MetricRepository
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(metricRepo *repository.MetricRepository) *LeaderboardService {
	return &LeaderboardService{metricRepo: metricRepo}
}

// metricColumns whitelists the sortable portfolio_metric columns per
// leaderboard metric name. Only values from this map ever reach SQL.
var metricColumns = map[string]string{
	model.MetricTotal:   "total_return",
	model.MetricDaily:   "daily_return",
	model.MetricMonthly: "monthly_return",
	model.MetricHourly:  "hourly_return",
}

// TopPortfolios returns the top portfolios by the requested metric, joining
// each portfolio's most recent metric row with its owner's display identity.
//
// Only public portfolios are eligible; private portfolios are excluded from
// every ranking regardless of caller identity. A limit below 1 falls back to
// the default of 10.
func (s *LeaderboardService) TopPortfolios(metric string, limit int) ([]model.LeaderboardEntry, error) {
	if err := validation.ValidateMetric(metric); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultLeaderboardLimit
	}

	return s.metricRepo.TopPortfolios(metricColumns[metric], limit)
}
