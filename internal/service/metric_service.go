package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// trailingWindowDays bounds the observation window for volatility, beta and
// the Sharpe ratio. Matches the monthly return horizon.
const trailingWindowDays = 30

// MetricService aggregates per-position snapshot data and return history into
// append-only PortfolioMetric rows.
type MetricService struct {
	metricRepo    *repository.MetricRepository
	snapshotRepo  *repository.SnapshotRepository
	portfolioRepo *repository.PortfolioRepository
	benchmarkRepo *repository.BenchmarkRepository

	benchmarkSymbol string
	riskFreeRate    float64
}

// NewMetricService creates a new MetricService.
func NewMetricService(
	metricRepo *repository.MetricRepository,
	snapshotRepo *repository.SnapshotRepository,
	portfolioRepo *repository.PortfolioRepository,
	benchmarkRepo *repository.BenchmarkRepository,
	benchmarkSymbol string,
	riskFreeRate float64,
) *MetricService {
	return &MetricService{
		metricRepo:      metricRepo,
		snapshotRepo:    snapshotRepo,
		portfolioRepo:   portfolioRepo,
		benchmarkRepo:   benchmarkRepo,
		benchmarkSymbol: benchmarkSymbol,
		riskFreeRate:    riskFreeRate,
	}
}

// AggregateMetrics computes and appends a new metric row for the portfolio.
//
// Returns apperrors.ErrPortfolioNotFound for an unknown portfolio. A
// portfolio with no snapshot history gets an all-zero baseline row rather
// than an error, so brand-new portfolios always read back something.
//
// Window anchoring: all returns are anchored to the latest available snapshot
// date. The hourly return compares against the previously appended metric
// row's portfolio value (the aggregation pass is the hourly cadence); daily,
// monthly and total returns come from the snapshot-derived value series.
func (s *MetricService) AggregateMetrics(portfolioID string) (model.PortfolioMetric, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return model.PortfolioMetric{}, err
	}

	series, err := s.snapshotRepo.GetValueSeries(portfolioID)
	if err != nil {
		return model.PortfolioMetric{}, fmt.Errorf("failed to load value series: %w", err)
	}

	metric := s.baselineMetric(portfolioID)

	if len(series) > 0 {
		latest := series[len(series)-1]
		metric.PortfolioValue = round2(latest.Value)
		metric.DailyReturn = dailyWindowReturn(series)
		metric.MonthlyReturn = windowReturn(series, latest.Date.AddDate(0, 0, -trailingWindowDays))
		metric.TotalReturn = percentReturn(latest.Value, series[0].Value)
		metric.HourlyReturn = s.hourlyReturn(portfolioID, latest.Value)

		returns := dailyReturns(series)
		if len(returns) > trailingWindowDays {
			returns = returns[len(returns)-trailingWindowDays:]
		}

		metric.Volatility = round2(stdDev(returns))
		metric.SharpeRatio = sharpeRatio(returns, s.riskFreeRate, metric.Volatility)
		metric.Beta = s.portfolioBeta(series, returns)
		metric.RiskScore = riskScore(metric.Volatility, metric.Beta)
		metric.RiskCategory = riskCategory(metric.RiskScore)
	}

	if err := s.metricRepo.InsertMetric(metric); err != nil {
		return model.PortfolioMetric{}, err
	}

	return metric, nil
}

// CreateBaselineMetric writes the all-zero metric row that accompanies
// portfolio creation, so reads never face an empty history.
func (s *MetricService) CreateBaselineMetric(portfolioID string) (model.PortfolioMetric, error) {
	metric := s.baselineMetric(portfolioID)
	if err := s.metricRepo.InsertMetric(metric); err != nil {
		return model.PortfolioMetric{}, err
	}
	return metric, nil
}

// GetMetricsOnPortfolioID returns the portfolio's full metric history ordered
// by last_updated_date, oldest first. Returns apperrors.ErrPortfolioNotFound
// for an unknown portfolio and apperrors.ErrMetricNotFound when the portfolio
// exists but has no rows (should not happen once creation writes the baseline).
func (s *MetricService) GetMetricsOnPortfolioID(portfolioID string) ([]model.PortfolioMetric, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}

	metrics, err := s.metricRepo.GetMetricsOnPortfolioID(portfolioID)
	if err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return nil, apperrors.ErrMetricNotFound
	}
	return metrics, nil
}

// GetCurrentMetric returns the most recent metric row for the portfolio.
func (s *MetricService) GetCurrentMetric(portfolioID string) (model.PortfolioMetric, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return model.PortfolioMetric{}, err
	}
	return s.metricRepo.GetLatestMetric(portfolioID)
}

func (s *MetricService) baselineMetric(portfolioID string) model.PortfolioMetric {
	return model.PortfolioMetric{
		ID:              uuid.NewString(),
		PortfolioID:     portfolioID,
		RiskCategory:    model.RiskConservative,
		LastUpdatedDate: time.Now().UTC(),
	}
}

// hourlyReturn compares the current portfolio value against the previously
// appended metric row's value. No prior row, or a prior zero value, yields 0.
func (s *MetricService) hourlyReturn(portfolioID string, currentValue float64) float64 {
	prior, err := s.metricRepo.GetLatestMetric(portfolioID)
	if errors.Is(err, apperrors.ErrMetricNotFound) {
		return 0
	}
	if err != nil {
		return 0
	}
	return percentReturn(currentValue, prior.PortfolioValue)
}

// portfolioBeta aligns the portfolio's daily returns with the benchmark's by
// date and computes cov/var over the shared trailing window. Missing or
// misaligned benchmark data yields 0, never an error: beta is a comparator,
// not a hard dependency.
func (s *MetricService) portfolioBeta(series []repository.DateValue, portfolioReturns []float64) float64 {
	benchmark, err := s.benchmarkRepo.GetReturns(s.benchmarkSymbol)
	if err != nil || len(benchmark) == 0 {
		return 0
	}

	benchmarkByDate := make(map[string]float64, len(benchmark))
	for _, b := range benchmark {
		benchmarkByDate[repository.FormatDate(b.Date)] = b.ReturnPct
	}

	// Portfolio return i belongs to series date i+1.
	offset := len(series) - len(portfolioReturns)
	var aligned, reference []float64
	for i, r := range portfolioReturns {
		date := repository.FormatDate(series[offset+i].Date)
		ref, ok := benchmarkByDate[date]
		if !ok {
			continue
		}
		aligned = append(aligned, r)
		reference = append(reference, ref)
	}

	return round2(beta(aligned, reference))
}

// dailyReturns converts a value series into day-over-day percentage returns.
// A non-positive prior value contributes a 0 return for that day.
func dailyReturns(series []repository.DateValue) []float64 {
	if len(series) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		returns = append(returns, percentReturn(series[i].Value, series[i-1].Value))
	}
	return returns
}

// dailyWindowReturn is the percentage change between the two most recent
// observations, 0 when fewer than two exist.
func dailyWindowReturn(series []repository.DateValue) float64 {
	if len(series) < 2 {
		return 0
	}
	return percentReturn(series[len(series)-1].Value, series[len(series)-2].Value)
}

// windowReturn is the percentage change of the latest value against the most
// recent observation on or before the window start. When the series doesn't
// reach back that far, the earliest observation is the base.
func windowReturn(series []repository.DateValue, windowStart time.Time) float64 {
	if len(series) < 2 {
		return 0
	}

	base := series[0]
	for _, dv := range series {
		if dv.Date.After(windowStart) {
			break
		}
		base = dv
	}

	return percentReturn(series[len(series)-1].Value, base.Value)
}
