package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/repository"
	"github.com/stocktrackr/backend/internal/testutil"
)

// TestSnapshotService_RecomputeSnapshots tests the full carry-forward,
// revaluation and weight normalization pipeline.
//
// WHY: This is the engine's core write path. A wrong weight or return here
// propagates into every metric row and leaderboard downstream.
func TestSnapshotService_RecomputeSnapshots(t *testing.T) {
	yesterday := testutil.Date(2025, 2, 1)
	today := testutil.Date(2025, 2, 2)

	t.Run("carries forward, revalues and normalizes weights", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)
		snapshotRepo := repository.NewSnapshotRepository(db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stockA := testutil.NewStock().Build(t, db)
		stockB := testutil.NewStock().Build(t, db)

		// Position A: 10 shares at avg cost 5; Position B: 20 shares at avg cost 5
		testutil.NewSnapshot(portfolio.ID, stockA.ID).WithDate(yesterday).WithQuantity(10).WithAverageCost(5).Build(t, db)
		testutil.NewSnapshot(portfolio.ID, stockB.ID).WithDate(yesterday).WithQuantity(20).WithAverageCost(5).Build(t, db)

		testutil.NewPrice(stockA.ID).WithDate(today).WithClose(6).Build(t, db)
		testutil.NewPrice(stockB.ID).WithDate(today).WithClose(4.5).Build(t, db)

		// Execute
		report, err := svc.RecomputeSnapshots(context.Background(), today)

		// Assert
		if err != nil {
			t.Fatalf("RecomputeSnapshots() returned unexpected error: %v", err)
		}
		if report.Created != 2 {
			t.Errorf("Expected 2 carried-forward snapshots, got %d", report.Created)
		}
		if report.Revalued != 2 {
			t.Errorf("Expected 2 revalued snapshots, got %d", report.Revalued)
		}
		if report.Failed != 0 {
			t.Errorf("Expected 0 failures, got %d: %v", report.Failed, report.Errors)
		}

		snapshots, err := snapshotRepo.GetOnDate(portfolio.ID, today)
		if err != nil {
			t.Fatalf("GetOnDate() returned unexpected error: %v", err)
		}
		if len(snapshots) != 2 {
			t.Fatalf("Expected 2 snapshots on target date, got %d", len(snapshots))
		}

		byStock := map[string]int{snapshots[0].StockID: 0, snapshots[1].StockID: 1}
		snapA := snapshots[byStock[stockA.ID]]
		snapB := snapshots[byStock[stockB.ID]]

		// Cost basis: A=50, B=100, total 150
		if snapA.PositionWeight != 0.3333 {
			t.Errorf("Expected weight 0.3333 for A, got %v", snapA.PositionWeight)
		}
		if snapB.PositionWeight != 0.6667 {
			t.Errorf("Expected weight 0.6667 for B, got %v", snapB.PositionWeight)
		}

		if snapA.CurrentValue != 6 {
			t.Errorf("Expected current value 6 for A, got %v", snapA.CurrentValue)
		}
		if snapA.TotalReturn != 20.00 {
			t.Errorf("Expected total return 20.00 for A, got %v", snapA.TotalReturn)
		}
		if snapB.TotalReturn != -10.00 {
			t.Errorf("Expected total return -10.00 for B, got %v", snapB.TotalReturn)
		}

		// Weight conservation
		sum := snapA.PositionWeight + snapB.PositionWeight
		if sum < 1-1e-4 || sum > 1+1e-4 {
			t.Errorf("Expected weights to sum to 1 within epsilon, got %v", sum)
		}
	})

	t.Run("is idempotent for the same date", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)
		snapshotRepo := repository.NewSnapshotRepository(db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		testutil.NewSnapshot(portfolio.ID, stock.ID).WithDate(yesterday).WithQuantity(10).WithAverageCost(5).Build(t, db)
		testutil.NewPrice(stock.ID).WithDate(today).WithClose(6).Build(t, db)

		// Execute twice
		if _, err := svc.RecomputeSnapshots(context.Background(), today); err != nil {
			t.Fatalf("first run returned unexpected error: %v", err)
		}
		first, err := snapshotRepo.GetOnDate(portfolio.ID, today)
		if err != nil {
			t.Fatalf("GetOnDate() returned unexpected error: %v", err)
		}

		report, err := svc.RecomputeSnapshots(context.Background(), today)
		if err != nil {
			t.Fatalf("second run returned unexpected error: %v", err)
		}
		second, err := snapshotRepo.GetOnDate(portfolio.ID, today)
		if err != nil {
			t.Fatalf("GetOnDate() returned unexpected error: %v", err)
		}

		// Assert: no new rows, identical decimal values
		if report.Created != 0 {
			t.Errorf("Expected 0 created on re-run, got %d", report.Created)
		}
		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("Expected 1 snapshot in both runs, got %d and %d", len(first), len(second))
		}
		if first[0].ID != second[0].ID {
			t.Error("Re-run replaced the snapshot row instead of rewriting it")
		}
		if first[0].CurrentValue != second[0].CurrentValue ||
			first[0].TotalReturn != second[0].TotalReturn ||
			first[0].PositionWeight != second[0].PositionWeight {
			t.Errorf("Re-run changed values: %+v vs %+v", first[0], second[0])
		}
	})

	t.Run("missing price isolates the row and keeps stale values", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)
		snapshotRepo := repository.NewSnapshotRepository(db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		priced := testutil.NewStock().Build(t, db)
		unpriced := testutil.NewStock().Build(t, db)

		testutil.NewSnapshot(portfolio.ID, priced.ID).WithDate(yesterday).WithQuantity(10).WithAverageCost(5).Build(t, db)
		testutil.NewSnapshot(portfolio.ID, unpriced.ID).WithDate(yesterday).
			WithQuantity(10).WithAverageCost(5).WithCurrentValue(7).Build(t, db)
		testutil.NewPrice(priced.ID).WithDate(today).WithClose(6).Build(t, db)

		// Execute
		report, err := svc.RecomputeSnapshots(context.Background(), today)

		// Assert
		if err != nil {
			t.Fatalf("RecomputeSnapshots() returned unexpected error: %v", err)
		}
		if report.Revalued != 1 {
			t.Errorf("Expected 1 revalued snapshot, got %d", report.Revalued)
		}
		if report.Failed != 1 {
			t.Fatalf("Expected 1 failed row, got %d", report.Failed)
		}
		if report.Errors[0].Err != apperrors.ErrPriceUnavailable.Error() {
			t.Errorf("Expected price unavailable error, got %q", report.Errors[0].Err)
		}

		snapshots, err := snapshotRepo.GetOnDate(portfolio.ID, today)
		if err != nil {
			t.Fatalf("GetOnDate() returned unexpected error: %v", err)
		}
		for _, snap := range snapshots {
			if snap.StockID == unpriced.ID {
				// Carried-forward stale price survives the run
				if snap.CurrentValue != 7 {
					t.Errorf("Expected stale current value 7, got %v", snap.CurrentValue)
				}
				// Cost basis still participates in weights
				if snap.PositionWeight != 0.5 {
					t.Errorf("Expected weight 0.5 for unpriced row, got %v", snap.PositionWeight)
				}
			}
		}
	})

	t.Run("zero total cost basis yields zero weights", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)
		snapshotRepo := repository.NewSnapshotRepository(db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		// Fully liquidated position: zero quantity, zero basis
		testutil.NewSnapshot(portfolio.ID, stock.ID).WithDate(yesterday).WithQuantity(0).WithAverageCost(5).Build(t, db)
		testutil.NewPrice(stock.ID).WithDate(today).WithClose(6).Build(t, db)

		// Execute
		if _, err := svc.RecomputeSnapshots(context.Background(), today); err != nil {
			t.Fatalf("RecomputeSnapshots() returned unexpected error: %v", err)
		}

		// Assert
		snapshots, err := snapshotRepo.GetOnDate(portfolio.ID, today)
		if err != nil {
			t.Fatalf("GetOnDate() returned unexpected error: %v", err)
		}
		if len(snapshots) != 1 {
			t.Fatalf("Expected 1 snapshot, got %d", len(snapshots))
		}
		if snapshots[0].PositionWeight != 0 {
			t.Errorf("Expected weight 0 for zero basis, got %v", snapshots[0].PositionWeight)
		}
	})

	t.Run("pair with no earlier snapshot is skipped silently", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		// Only a future snapshot exists: nothing to carry forward onto today
		testutil.NewSnapshot(portfolio.ID, stock.ID).WithDate(today.AddDate(0, 0, 7)).
			WithQuantity(10).WithAverageCost(5).Build(t, db)
		testutil.NewPrice(stock.ID).WithDate(today).WithClose(6).Build(t, db)

		// Execute
		report, err := svc.RecomputeSnapshots(context.Background(), today)

		// Assert
		if err != nil {
			t.Fatalf("RecomputeSnapshots() returned unexpected error: %v", err)
		}
		if report.Created != 0 || report.Failed != 0 {
			t.Errorf("Expected nothing created or failed, got created=%d failed=%d", report.Created, report.Failed)
		}
	})

	t.Run("processes portfolios independently", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)
		snapshotRepo := repository.NewSnapshotRepository(db)

		user := testutil.NewUser().Build(t, db)
		p1 := testutil.NewPortfolio(user.ID).Build(t, db)
		p2 := testutil.NewPortfolio(user.ID).Build(t, db)
		stock := testutil.NewStock().Build(t, db)

		testutil.NewSnapshot(p1.ID, stock.ID).WithDate(yesterday).WithQuantity(10).WithAverageCost(5).Build(t, db)
		testutil.NewSnapshot(p2.ID, stock.ID).WithDate(yesterday).WithQuantity(3).WithAverageCost(8).Build(t, db)
		testutil.NewPrice(stock.ID).WithDate(today).WithClose(6).Build(t, db)

		// Execute
		report, err := svc.RecomputeSnapshots(context.Background(), today)

		// Assert
		if err != nil {
			t.Fatalf("RecomputeSnapshots() returned unexpected error: %v", err)
		}
		if report.Portfolios != 2 {
			t.Errorf("Expected 2 portfolios processed, got %d", report.Portfolios)
		}

		for _, id := range []string{p1.ID, p2.ID} {
			snapshots, err := snapshotRepo.GetOnDate(id, today)
			if err != nil {
				t.Fatalf("GetOnDate() returned unexpected error: %v", err)
			}
			if len(snapshots) != 1 {
				t.Errorf("Expected 1 snapshot for portfolio %s, got %d", id, len(snapshots))
			}
			// Single position always gets full weight
			if len(snapshots) == 1 && snapshots[0].PositionWeight != 1 {
				t.Errorf("Expected weight 1 for single position, got %v", snapshots[0].PositionWeight)
			}
		}
	})
}

// TestSnapshotService_RecomputeSnapshots_DateNormalization verifies the run
// operates on calendar dates, not timestamps.
func TestSnapshotService_RecomputeSnapshots_DateNormalization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSnapshotService(t, db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	user := testutil.NewUser().Build(t, db)
	portfolio := testutil.NewPortfolio(user.ID).Build(t, db)
	stock := testutil.NewStock().Build(t, db)

	testutil.NewSnapshot(portfolio.ID, stock.ID).WithDate(testutil.Date(2025, 2, 1)).
		WithQuantity(10).WithAverageCost(5).Build(t, db)
	testutil.NewPrice(stock.ID).WithDate(testutil.Date(2025, 2, 2)).WithClose(6).Build(t, db)

	// Mid-day timestamp lands on the same calendar date
	target := time.Date(2025, 2, 2, 14, 30, 12, 0, time.UTC)
	if _, err := svc.RecomputeSnapshots(context.Background(), target); err != nil {
		t.Fatalf("RecomputeSnapshots() returned unexpected error: %v", err)
	}

	snapshots, err := snapshotRepo.GetOnDate(portfolio.ID, testutil.Date(2025, 2, 2))
	if err != nil {
		t.Fatalf("GetOnDate() returned unexpected error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot on normalized date, got %d", len(snapshots))
	}
}
