package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/config"
	"github.com/stocktrackr/backend/internal/marketdata"
	"github.com/stocktrackr/backend/internal/repository"
	"github.com/stocktrackr/backend/internal/service"
)

// TestBenchmarkSymbol is the reference index symbol used across tests.
const TestBenchmarkSymbol = "SPY"

func NewTestSnapshotService(t *testing.T, db *sql.DB) *service.SnapshotService {
	t.Helper()

	snapshotRepo := repository.NewSnapshotRepository(db)
	priceSource := marketdata.NewStoreSource(repository.NewPriceRepository(db))

	return service.NewSnapshotService(snapshotRepo, priceSource, 2)
}

func NewTestMetricService(t *testing.T, db *sql.DB) *service.MetricService {
	t.Helper()

	return service.NewMetricService(
		repository.NewMetricRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewBenchmarkRepository(db),
		TestBenchmarkSymbol,
		0,
	)
}

func NewTestTradeService(t *testing.T, db *sql.DB) *service.TradeService {
	t.Helper()

	return service.NewTradeService(
		repository.NewTradeRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewUserRepository(db),
	)
}

func NewTestLeaderboardService(t *testing.T, db *sql.DB) *service.LeaderboardService {
	t.Helper()

	return service.NewLeaderboardService(repository.NewMetricRepository(db))
}

func NewTestActivityService(t *testing.T, db *sql.DB) *service.ActivityService {
	t.Helper()

	return service.NewActivityService(
		repository.NewActivityRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewTradeRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewStockRepository(db),
		NewTestTradeService(t, db),
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewUserRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewActivityRepository(db),
		NewTestMetricService(t, db),
	)
}

// NewTestPriceService builds a PriceService whose fetcher talks to baseURL,
// typically an httptest server standing in for the market-data provider.
func NewTestPriceService(t *testing.T, db *sql.DB, baseURL string) *service.PriceService {
	t.Helper()

	priceRepo := repository.NewPriceRepository(db)
	return service.NewPriceService(
		repository.NewStockRepository(db),
		priceRepo,
		repository.NewBenchmarkRepository(db),
		marketdata.NewFetchClient(baseURL),
		marketdata.NewStoreSource(priceRepo),
		TestBenchmarkSymbol,
	)
}

// NewTestScheduler builds a Scheduler wired against the test database. The
// cron entries are never started; tests drive the passes directly.
func NewTestScheduler(t *testing.T, db *sql.DB) *service.Scheduler {
	t.Helper()

	cfg := config.EngineConfig{
		SnapshotCron:    "10 * * * *",
		MetricCron:      "20 * * * *",
		PriceCron:       "0 * * * *",
		WorkerLimit:     2,
		BenchmarkSymbol: TestBenchmarkSymbol,
	}

	return service.NewScheduler(
		cfg,
		NewTestSnapshotService(t, db),
		NewTestMetricService(t, db),
		NewTestPriceService(t, db, "http://127.0.0.1:0"),
		repository.NewPortfolioRepository(db),
		repository.NewRunRepository(db),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a unique ticker symbol for testing.
//
// Example usage:
//
//	ticker := testutil.MakeTicker("AAPL")
//	// Returns: "AAPL1A2B"
func MakeTicker(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeUsername generates a unique username for testing.
func MakeUsername(base string) string {
	if base == "" {
		base = "user"
	}
	return base + "_" + randomAlphanumeric(6)
}

// Date builds a UTC date-only time for test fixtures.
//
// Example usage:
//
//	d := testutil.Date(2025, 2, 1)
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
