package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
	"github.com/stocktrackr/backend/internal/testutil"
)

// TestScheduler_RunSnapshotPass tests the run-slot handling around the
// snapshot pass.
//
// WHY: The slot is the only thing standing between overlapping ticks; a pass
// that forgets to release it would wedge the pipeline for its date.
func TestScheduler_RunSnapshotPass(t *testing.T) {
	t.Run("runs and releases the slot", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		sched := testutil.NewTestScheduler(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		date := testutil.Date(2025, 5, 2)
		testutil.NewSnapshot(portfolio.ID, stock.ID).
			WithDate(testutil.Date(2025, 5, 1)).WithQuantity(10).WithAverageCost(5).
			Build(t, db)
		testutil.NewPrice(stock.ID).WithDate(date).WithClose(6).Build(t, db)

		// Execute
		report, err := sched.RunSnapshotPass(context.Background(), date)

		// Assert
		if err != nil {
			t.Fatalf("RunSnapshotPass() returned unexpected error: %v", err)
		}
		if report.Created != 1 {
			t.Errorf("Expected 1 carried-forward snapshot, got %d", report.Created)
		}

		// Slot was released; the same date can run again immediately
		if _, err := sched.RunSnapshotPass(context.Background(), date); err != nil {
			t.Errorf("Expected released slot to allow a re-run, got %v", err)
		}
	})

	t.Run("skips when a prior run holds the slot", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		sched := testutil.NewTestScheduler(t, db)
		runRepo := repository.NewRunRepository(db)

		date := testutil.Date(2025, 5, 2)
		if _, err := runRepo.BeginRun(date, model.StageSnapshots); err != nil {
			t.Fatalf("BeginRun() returned unexpected error: %v", err)
		}

		// Execute
		_, err := sched.RunSnapshotPass(context.Background(), date)

		// Assert
		if !errors.Is(err, apperrors.ErrStaleRun) {
			t.Errorf("Expected ErrStaleRun, got %v", err)
		}

		// The stale skip must not release the other run's slot
		if _, err := runRepo.BeginRun(date, model.StageSnapshots); !errors.Is(err, apperrors.ErrStaleRun) {
			t.Errorf("Expected slot still held, got %v", err)
		}
	})

	t.Run("snapshot and metric passes hold independent slots", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		sched := testutil.NewTestScheduler(t, db)
		runRepo := repository.NewRunRepository(db)

		date := testutil.Date(2025, 5, 2)
		if _, err := runRepo.BeginRun(date, model.StageSnapshots); err != nil {
			t.Fatalf("BeginRun() returned unexpected error: %v", err)
		}

		// Execute / Assert: an in-progress snapshot run doesn't block metrics
		if err := sched.RunMetricPass(date); err != nil {
			t.Errorf("RunMetricPass() returned unexpected error: %v", err)
		}
	})
}

// TestScheduler_RunMetricPass tests the portfolio-wide aggregation pass.
func TestScheduler_RunMetricPass(t *testing.T) {
	t.Run("aggregates every portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		sched := testutil.NewTestScheduler(t, db)
		metricSvc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)
		p1 := testutil.NewPortfolio(user.ID).Build(t, db)
		p2 := testutil.NewPortfolio(user.ID).Build(t, db)

		// Execute
		if err := sched.RunMetricPass(testutil.Date(2025, 5, 2)); err != nil {
			t.Fatalf("RunMetricPass() returned unexpected error: %v", err)
		}

		// Assert: both portfolios got a metric row (baseline, no snapshots yet)
		for _, id := range []string{p1.ID, p2.ID} {
			if _, err := metricSvc.GetCurrentMetric(id); err != nil {
				t.Errorf("Expected metric row for portfolio %s, got %v", id, err)
			}
		}
	})

	t.Run("skips when a prior run holds the slot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		sched := testutil.NewTestScheduler(t, db)
		runRepo := repository.NewRunRepository(db)

		date := testutil.Date(2025, 5, 2)
		if _, err := runRepo.BeginRun(date, model.StageMetrics); err != nil {
			t.Fatalf("BeginRun() returned unexpected error: %v", err)
		}

		if err := sched.RunMetricPass(date); !errors.Is(err, apperrors.ErrStaleRun) {
			t.Errorf("Expected ErrStaleRun, got %v", err)
		}
	})
}
