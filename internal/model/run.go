package model

import (
	"fmt"
	"time"
)

// Scheduler stages recorded in the scheduler_run table.
const (
	StageSnapshots = "snapshots"
	StageMetrics   = "metrics"
)

// SchedulerRun records one invocation of a scheduled stage for one date.
// An existing row with a null finished_at marks an in-progress run; a second
// invocation for the same (date, stage) must no-op with ErrStaleRun.
type SchedulerRun struct {
	ID         string
	RunDate    time.Time
	Stage      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RowError records one isolated per-row or per-portfolio failure inside a run.
// Failures are accumulated and reported, never silently printed and dropped.
type RowError struct {
	PortfolioID string `json:"portfolioId"`
	StockID     string `json:"stockId,omitempty"`
	Stage       string `json:"stage"`
	Err         string `json:"error"`
}

func (e RowError) String() string {
	return fmt.Sprintf("%s portfolio=%s stock=%s: %s", e.Stage, e.PortfolioID, e.StockID, e.Err)
}

// RunReport is the structured result of one RecomputeSnapshots run, consumable
// by tests and operators instead of console-only side effects.
type RunReport struct {
	Date       time.Time  `json:"date"`
	Created    int        `json:"created"`  // snapshots cloned by carry-forward
	Revalued   int        `json:"revalued"` // snapshots repriced and reweighted
	Failed     int        `json:"failed"`   // rows skipped on isolated failures
	Portfolios int        `json:"portfolios"`
	Errors     []RowError `json:"errors,omitempty"`
}
