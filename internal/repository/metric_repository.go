package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// MetricRepository provides data access methods for the portfolio_metric table.
// Rows are append-only: the aggregator inserts and never updates.
type MetricRepository struct {
	db *sql.DB
}

// NewMetricRepository creates a new MetricRepository with the provided database connection.
func NewMetricRepository(db *sql.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

const metricSelect = `
	SELECT id, portfolio_id, hourly_return, daily_return, monthly_return, total_return,
	       beta, sharpe_ratio, volatility, portfolio_value, risk_score, risk_category, last_updated_date
	FROM portfolio_metric
`

// InsertMetric appends a new metric row for a portfolio.
func (s *MetricRepository) InsertMetric(m model.PortfolioMetric) error {
	query := `
		INSERT INTO portfolio_metric (
			id, portfolio_id, hourly_return, daily_return, monthly_return, total_return,
			beta, sharpe_ratio, volatility, portfolio_value, risk_score, risk_category, last_updated_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		m.ID,
		m.PortfolioID,
		m.HourlyReturn,
		m.DailyReturn,
		m.MonthlyReturn,
		m.TotalReturn,
		m.Beta,
		m.SharpeRatio,
		m.Volatility,
		m.PortfolioValue,
		m.RiskScore,
		m.RiskCategory,
		m.LastUpdatedDate.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio_metric: %w", err)
	}
	return nil
}

// GetMetricsOnPortfolioID retrieves the full metric history for a portfolio,
// ordered by last_updated_date ascending so the final element is current.
// Returns an empty slice when no rows exist (the caller decides whether that
// is an error or a baseline case).
func (s *MetricRepository) GetMetricsOnPortfolioID(portfolioID string) ([]model.PortfolioMetric, error) {
	query := metricSelect + `
		WHERE portfolio_id = ?
		ORDER BY last_updated_date ASC
	`
	rows, err := s.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_metric table: %w", err)
	}
	defer rows.Close()

	metrics := []model.PortfolioMetric{}
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_metric table: %w", err)
	}

	return metrics, nil
}

// GetLatestMetric retrieves the most recent metric row for a portfolio.
// Returns apperrors.ErrMetricNotFound when no rows exist.
func (s *MetricRepository) GetLatestMetric(portfolioID string) (model.PortfolioMetric, error) {
	query := metricSelect + `
		WHERE portfolio_id = ?
		ORDER BY last_updated_date DESC
		LIMIT 1
	`
	row := s.db.QueryRow(query, portfolioID)

	m, err := scanMetricRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PortfolioMetric{}, apperrors.ErrMetricNotFound
	}
	if err != nil {
		return model.PortfolioMetric{}, err
	}
	return m, nil
}

// TopPortfolios retrieves the latest metric per public portfolio joined to
// portfolio and owner identity, ordered descending by the requested metric
// column. metricColumn must be one of the whitelisted column names mapped by
// the caller; it is never user input.
func (s *MetricRepository) TopPortfolios(metricColumn string, limit int) ([]model.LeaderboardEntry, error) {
	//#nosec G202 -- Safe: metricColumn comes from a fixed whitelist in the service layer, not from user input
	query := `
		SELECT pm.id, pm.portfolio_id, pm.hourly_return, pm.daily_return, pm.monthly_return,
		       pm.total_return, pm.beta, pm.sharpe_ratio, pm.volatility, pm.portfolio_value,
		       pm.risk_score, pm.risk_category, pm.last_updated_date,
		       p.id, p.user_id, p.name, p.description, p.is_public, p.created_at,
		       u.username, u.display_name
		FROM portfolio_metric pm
		JOIN (
			SELECT portfolio_id, MAX(last_updated_date) AS max_date
			FROM portfolio_metric
			GROUP BY portfolio_id
		) latest ON latest.portfolio_id = pm.portfolio_id AND latest.max_date = pm.last_updated_date
		JOIN portfolio p ON p.id = pm.portfolio_id
		JOIN "user" u ON u.id = p.user_id
		WHERE p.is_public = 1
		ORDER BY pm.` + metricColumn + ` DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		var metricDateStr, portfolioCreatedStr string

		err := rows.Scan(
			&e.Metric.ID,
			&e.Metric.PortfolioID,
			&e.Metric.HourlyReturn,
			&e.Metric.DailyReturn,
			&e.Metric.MonthlyReturn,
			&e.Metric.TotalReturn,
			&e.Metric.Beta,
			&e.Metric.SharpeRatio,
			&e.Metric.Volatility,
			&e.Metric.PortfolioValue,
			&e.Metric.RiskScore,
			&e.Metric.RiskCategory,
			&metricDateStr,
			&e.Portfolio.ID,
			&e.Portfolio.UserID,
			&e.Portfolio.Name,
			&e.Portfolio.Description,
			&e.Portfolio.IsPublic,
			&portfolioCreatedStr,
			&e.OwnerUsername,
			&e.OwnerDisplay,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard results: %w", err)
		}

		e.Metric.LastUpdatedDate, err = ParseTime(metricDateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_updated_date: %w", err)
		}
		e.Portfolio.CreatedAt, err = ParseTime(portfolioCreatedStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard results: %w", err)
	}

	return entries, nil
}

func scanMetric(rows *sql.Rows) (model.PortfolioMetric, error) {
	return scanMetricRow(rows)
}

func scanMetricRow(row rowScanner) (model.PortfolioMetric, error) {
	var m model.PortfolioMetric
	var dateStr string

	err := row.Scan(
		&m.ID,
		&m.PortfolioID,
		&m.HourlyReturn,
		&m.DailyReturn,
		&m.MonthlyReturn,
		&m.TotalReturn,
		&m.Beta,
		&m.SharpeRatio,
		&m.Volatility,
		&m.PortfolioValue,
		&m.RiskScore,
		&m.RiskCategory,
		&dateStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PortfolioMetric{}, err
	}
	if err != nil {
		return model.PortfolioMetric{}, fmt.Errorf("failed to scan portfolio_metric results: %w", err)
	}

	m.LastUpdatedDate, err = ParseTime(dateStr)
	if err != nil {
		return model.PortfolioMetric{}, fmt.Errorf("failed to parse last_updated_date: %w", err)
	}

	return m, nil
}
