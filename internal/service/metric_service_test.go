package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/testutil"
)

// TestMetricService_AggregateMetrics tests the metric aggregation pass.
//
// WHY: Metric rows feed the leaderboard and every portfolio read; the
// aggregator must stay correct for empty histories, short histories and
// benchmark-aligned beta.
func TestMetricService_AggregateMetrics(t *testing.T) {
	t.Run("unknown portfolio returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		_, err := svc.AggregateMetrics(testutil.MakeID())
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})

	t.Run("portfolio without snapshots gets all-zero baseline", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)

		// Execute
		metric, err := svc.AggregateMetrics(portfolio.ID)

		// Assert
		if err != nil {
			t.Fatalf("AggregateMetrics() returned unexpected error: %v", err)
		}
		if metric.PortfolioValue != 0 || metric.TotalReturn != 0 || metric.Volatility != 0 ||
			metric.Beta != 0 || metric.SharpeRatio != 0 || metric.RiskScore != 0 {
			t.Errorf("Expected all-zero baseline, got %+v", metric)
		}
		if metric.RiskCategory != model.RiskConservative {
			t.Errorf("Expected Conservative baseline category, got %q", metric.RiskCategory)
		}

		// Baseline is persisted, so reads never face an empty history
		current, err := svc.GetCurrentMetric(portfolio.ID)
		if err != nil {
			t.Fatalf("GetCurrentMetric() returned unexpected error: %v", err)
		}
		if current.ID != metric.ID {
			t.Errorf("Expected persisted baseline row, got %+v", current)
		}
	})

	t.Run("computes returns and risk from the value series", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		// Value series: 50 -> 60 -> 66 (qty 10, per-share price 5 / 6 / 6.6)
		dates := []struct {
			day   int
			price float64
		}{
			{1, 5},
			{2, 6},
			{3, 6.6},
		}
		for _, d := range dates {
			testutil.NewSnapshot(portfolio.ID, stock.ID).
				WithDate(testutil.Date(2025, 2, d.day)).
				WithQuantity(10).WithAverageCost(5).WithCurrentValue(d.price).
				Build(t, db)
		}

		// Execute
		metric, err := svc.AggregateMetrics(portfolio.ID)

		// Assert
		if err != nil {
			t.Fatalf("AggregateMetrics() returned unexpected error: %v", err)
		}
		if metric.PortfolioValue != 66 {
			t.Errorf("Expected portfolio value 66, got %v", metric.PortfolioValue)
		}
		if metric.DailyReturn != 10.00 {
			t.Errorf("Expected daily return 10.00, got %v", metric.DailyReturn)
		}
		if metric.TotalReturn != 32.00 {
			t.Errorf("Expected total return 32.00, got %v", metric.TotalReturn)
		}
		// Series shorter than the monthly window anchors on the earliest value
		if metric.MonthlyReturn != 32.00 {
			t.Errorf("Expected monthly return 32.00, got %v", metric.MonthlyReturn)
		}
		// Daily returns are 20.00 and 10.00 -> population stddev 5
		if metric.Volatility != 5 {
			t.Errorf("Expected volatility 5, got %v", metric.Volatility)
		}
		if metric.RiskCategory != model.RiskConservative {
			t.Errorf("Expected Conservative category, got %q", metric.RiskCategory)
		}
	})

	t.Run("hourly return compares against the prior metric row", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		testutil.NewSnapshot(portfolio.ID, stock.ID).
			WithDate(testutil.Date(2025, 2, 3)).
			WithQuantity(10).WithAverageCost(5).WithCurrentValue(6.6).
			Build(t, db)

		// Prior pass valued the portfolio at 60
		testutil.NewMetric(portfolio.ID).
			WithPortfolioValue(60).
			WithLastUpdatedDate(testutil.Date(2025, 2, 3).Add(-time.Hour)).
			Build(t, db)

		// Execute
		metric, err := svc.AggregateMetrics(portfolio.ID)

		// Assert
		if err != nil {
			t.Fatalf("AggregateMetrics() returned unexpected error: %v", err)
		}
		if metric.HourlyReturn != 10.00 {
			t.Errorf("Expected hourly return 10.00, got %v", metric.HourlyReturn)
		}
	})

	t.Run("beta aligns portfolio and benchmark returns by date", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		prices := []struct {
			day   int
			price float64
		}{
			{1, 5},
			{2, 6},
			{3, 6.6},
		}
		for _, p := range prices {
			testutil.NewSnapshot(portfolio.ID, stock.ID).
				WithDate(testutil.Date(2025, 2, p.day)).
				WithQuantity(10).WithAverageCost(5).WithCurrentValue(p.price).
				Build(t, db)
		}

		// Portfolio daily returns are 20.00 and 10.00; benchmark moves half as
		// much on the same dates, so beta is 2.
		testutil.CreateBenchmarkReturn(t, db, testutil.TestBenchmarkSymbol, testutil.Date(2025, 2, 2), 10)
		testutil.CreateBenchmarkReturn(t, db, testutil.TestBenchmarkSymbol, testutil.Date(2025, 2, 3), 5)

		// Execute
		metric, err := svc.AggregateMetrics(portfolio.ID)

		// Assert
		if err != nil {
			t.Fatalf("AggregateMetrics() returned unexpected error: %v", err)
		}
		if math.Abs(metric.Beta-2) > 1e-9 {
			t.Errorf("Expected beta 2, got %v", metric.Beta)
		}
	})

	t.Run("missing benchmark data degrades beta to zero", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		for day, price := range map[int]float64{1: 5, 2: 6} {
			testutil.NewSnapshot(portfolio.ID, stock.ID).
				WithDate(testutil.Date(2025, 2, day)).
				WithQuantity(10).WithAverageCost(5).WithCurrentValue(price).
				Build(t, db)
		}

		// Execute
		metric, err := svc.AggregateMetrics(portfolio.ID)

		// Assert
		if err != nil {
			t.Fatalf("AggregateMetrics() returned unexpected error: %v", err)
		}
		if metric.Beta != 0 {
			t.Errorf("Expected beta 0 without benchmark data, got %v", metric.Beta)
		}
	})
}

// TestMetricService_CreateBaselineMetric verifies portfolio creation can seed
// the metric history.
func TestMetricService_CreateBaselineMetric(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestMetricService(t, db)

	user := testutil.NewUser().Build(t, db)
	portfolio := testutil.NewPortfolio(user.ID).Build(t, db)

	metric, err := svc.CreateBaselineMetric(portfolio.ID)
	if err != nil {
		t.Fatalf("CreateBaselineMetric() returned unexpected error: %v", err)
	}
	if metric.PortfolioValue != 0 || metric.RiskCategory != model.RiskConservative {
		t.Errorf("Expected all-zero Conservative baseline, got %+v", metric)
	}

	metrics, err := svc.GetMetricsOnPortfolioID(portfolio.ID)
	if err != nil {
		t.Fatalf("GetMetricsOnPortfolioID() returned unexpected error: %v", err)
	}
	if len(metrics) != 1 {
		t.Errorf("Expected 1 metric row, got %d", len(metrics))
	}
}

// TestMetricService_GetMetricsOnPortfolioID covers the read-side errors.
func TestMetricService_GetMetricsOnPortfolioID(t *testing.T) {
	t.Run("unknown portfolio returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		_, err := svc.GetMetricsOnPortfolioID(testutil.MakeID())
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})

	t.Run("portfolio without rows returns metric not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)

		_, err := svc.GetMetricsOnPortfolioID(portfolio.ID)
		if !errors.Is(err, apperrors.ErrMetricNotFound) {
			t.Errorf("Expected ErrMetricNotFound, got %v", err)
		}
	})
}
