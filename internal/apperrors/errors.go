package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrUserNotFound indicates that a user with the given ID does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrStockNotFound indicates that a stock with the given ID or ticker does not exist.
	ErrStockNotFound = errors.New("stock not found")

	// ErrSnapshotNotFound indicates no position snapshot exists for the requested
	// portfolio, stock and date combination.
	ErrSnapshotNotFound = errors.New("position snapshot not found")

	// ErrMetricNotFound indicates that no portfolio metric rows exist for the portfolio.
	ErrMetricNotFound = errors.New("portfolio metric not found")

	// ErrTradeNotFound indicates that a trade metric with the given ID does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrNoTradesFound indicates a ranking scope (portfolio or user) contains no
	// closed trades. Distinct from a trade with 0% return: this is the absence of data.
	ErrNoTradesFound = errors.New("no closed trades found in scope")
)

// Engine errors represent recomputation-run conditions surfaced to the scheduler
// and to callers of the engine entry points.
var (
	// ErrPriceUnavailable indicates no current price could be resolved for a stock.
	// Per-row and non-fatal: the affected snapshot keeps its stale values for the run.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrStaleRun indicates a scheduler invocation found a prior unfinished run
	// for the same date and stage. The invocation must no-op.
	ErrStaleRun = errors.New("prior run for date still in progress")

	// ErrInconsistentState indicates position weights for a portfolio/date failed
	// to sum to 1 within epsilon. Logged in production, asserted in tests.
	ErrInconsistentState = errors.New("position weights inconsistent")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeQuantity indicates a quantity field has an invalid negative value.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")

	// ErrInsufficientQuantity indicates a sell exceeds the currently held quantity.
	ErrInsufficientQuantity = errors.New("insufficient quantity for sale")

	// ErrUnknownActionType indicates an investment activity action outside BUY/SELL/ADD.
	ErrUnknownActionType = errors.New("unknown action type")

	// ErrBackdatedActivity indicates an activity dated before the position's
	// latest snapshot. Later rows were derived from that history; it stays frozen.
	ErrBackdatedActivity = errors.New("activity predates derived snapshots")

	// ErrUnknownMetric indicates a leaderboard request for a metric outside
	// total/daily/monthly/hourly.
	ErrUnknownMetric = errors.New("unknown leaderboard metric")
)
