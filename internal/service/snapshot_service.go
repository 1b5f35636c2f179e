package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/marketdata"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// weightEpsilon is the tolerance for the weight-conservation invariant:
// per-portfolio weights must sum to 1 within this bound whenever the total
// cost basis is positive.
const weightEpsilon = 1e-4

// SnapshotService runs the snapshot recomputation pipeline: carry-forward,
// revaluation against current prices, and weight normalization.
//
// All rows of one portfolio/date are written inside a single transaction, so
// concurrent readers observe either the pre-run or the fully post-run state.
// Portfolios are independent and processed by a bounded worker pool.
type SnapshotService struct {
	snapshotRepo *repository.SnapshotRepository
	prices       marketdata.Source
	workerLimit  int
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(snapshotRepo *repository.SnapshotRepository, prices marketdata.Source, workerLimit int) *SnapshotService {
	if workerLimit < 1 {
		workerLimit = 1
	}
	return &SnapshotService{
		snapshotRepo: snapshotRepo,
		prices:       prices,
		workerLimit:  workerLimit,
	}
}

// portfolioResult accumulates one portfolio's counts and isolated failures.
type portfolioResult struct {
	created  int
	revalued int
	failed   int
	errors   []model.RowError
}

// RecomputeSnapshots applies carry-forward, revaluation and weight
// normalization for every portfolio on the target date.
//
// The method is idempotent: a second run for the same date finds every row
// already present and rewrites identical decimal values. Per-row failures
// (missing price, clone failure) are recorded in the report and skipped;
// a portfolio-level transaction failure is recorded and the remaining
// portfolios continue. Only cross-cutting failures (the snapshot store or
// price source unreachable) abort the run.
func (s *SnapshotService) RecomputeSnapshots(ctx context.Context, date time.Time) (model.RunReport, error) {
	date = repository.DateOnly(date)
	report := model.RunReport{Date: date}

	pairsByPortfolio, err := s.snapshotRepo.GetActivePairs()
	if err != nil {
		return report, fmt.Errorf("failed to load active positions: %w", err)
	}

	prices, err := s.prices.CurrentPrices()
	if err != nil {
		return report, fmt.Errorf("failed to load current prices: %w", err)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerLimit)

	for portfolioID, pairs := range pairsByPortfolio {
		portfolioID, pairs := portfolioID, pairs
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result := s.recomputePortfolio(portfolioID, pairs, prices, date)

			mu.Lock()
			report.Portfolios++
			report.Created += result.created
			report.Revalued += result.revalued
			report.Failed += result.failed
			report.Errors = append(report.Errors, result.errors...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("snapshot run interrupted: %w", err)
	}

	return report, nil
}

// recomputePortfolio runs the three stages for one portfolio/date inside a
// single transaction. A failure anywhere rolls the whole portfolio back and
// is reported as one portfolio-level error; the next scheduled run re-derives
// from the latest committed state.
func (s *SnapshotService) recomputePortfolio(portfolioID string, pairs []repository.PositionPair, prices map[string]float64, date time.Time) portfolioResult {
	var result portfolioResult

	tx, err := s.snapshotRepo.Begin()
	if err != nil {
		result.failed++
		result.errors = append(result.errors, model.RowError{
			PortfolioID: portfolioID,
			Stage:       "begin",
			Err:         err.Error(),
		})
		return result
	}
	defer func() {
		//nolint:errcheck // Rollback after commit is a no-op
		tx.Rollback()
	}()

	now := time.Now().UTC()

	s.carryForward(tx, pairs, date, now, &result)

	if err := s.revalueAndNormalize(tx, portfolioID, date, prices, now, &result); err != nil {
		result.failed++
		result.errors = append(result.errors, model.RowError{
			PortfolioID: portfolioID,
			Stage:       "revalue",
			Err:         err.Error(),
		})
		return result
	}

	if err := tx.Commit(); err != nil {
		result.failed++
		result.errors = append(result.errors, model.RowError{
			PortfolioID: portfolioID,
			Stage:       "commit",
			Err:         err.Error(),
		})
	}

	return result
}

// carryForward ensures every (portfolio, stock) pair has a snapshot row on
// the target date, cloning the most recent strictly-earlier row when absent.
// Pairs with no earlier row are skipped: no position existed yet. Individual
// clone failures are recorded and do not abort the remaining pairs.
func (s *SnapshotService) carryForward(tx *sql.Tx, pairs []repository.PositionPair, date, now time.Time, result *portfolioResult) {
	for _, pair := range pairs {
		exists, err := s.snapshotRepo.ExistsOnDateTx(tx, pair.PortfolioID, pair.StockID, date)
		if err != nil {
			result.failed++
			result.errors = append(result.errors, model.RowError{
				PortfolioID: pair.PortfolioID,
				StockID:     pair.StockID,
				Stage:       "carry-forward",
				Err:         err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		prior, err := s.snapshotRepo.GetLatestBeforeTx(tx, pair.PortfolioID, pair.StockID, date)
		if errors.Is(err, apperrors.ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			result.failed++
			result.errors = append(result.errors, model.RowError{
				PortfolioID: pair.PortfolioID,
				StockID:     pair.StockID,
				Stage:       "carry-forward",
				Err:         err.Error(),
			})
			continue
		}

		clone := prior
		clone.ID = uuid.NewString()
		clone.Date = date
		clone.LastUpdated = now

		if err := s.snapshotRepo.InsertTx(tx, clone); err != nil {
			result.failed++
			result.errors = append(result.errors, model.RowError{
				PortfolioID: pair.PortfolioID,
				StockID:     pair.StockID,
				Stage:       "carry-forward",
				Err:         err.Error(),
			})
			continue
		}
		result.created++
	}
}

// revalueAndNormalize recomputes current value and total return for every
// snapshot row on the date, then renormalizes position weights over the
// portfolio's cost basis. A missing price leaves that row's stale values in
// place for this run but its cost basis still participates in weights.
//
// Weights are cost-basis-relative, not market-value-relative: the normalizer
// reads average_cost and quantity, never current_value.
func (s *SnapshotService) revalueAndNormalize(tx *sql.Tx, portfolioID string, date time.Time, prices map[string]float64, now time.Time, result *portfolioResult) error {
	snapshots, err := s.snapshotRepo.GetOnDateTx(tx, portfolioID, date)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return nil
	}

	for i := range snapshots {
		snap := &snapshots[i]

		price, ok := prices[snap.StockID]
		if !ok || price <= 0 {
			result.failed++
			result.errors = append(result.errors, model.RowError{
				PortfolioID: snap.PortfolioID,
				StockID:     snap.StockID,
				Stage:       "revalue",
				Err:         apperrors.ErrPriceUnavailable.Error(),
			})
			continue
		}

		snap.CurrentValue = price
		snap.TotalReturn = positionReturn(price, snap.AverageCost)

		if err := s.snapshotRepo.UpdateValuationTx(tx, snap.ID, snap.CurrentValue, snap.TotalReturn, now); err != nil {
			return err
		}
		result.revalued++
	}

	var totalCostBasis float64
	for _, snap := range snapshots {
		totalCostBasis += snap.CostBasis()
	}

	var weightSum float64
	for i := range snapshots {
		snap := &snapshots[i]

		weight := 0.0
		if totalCostBasis > 0 {
			weight = round4(snap.CostBasis() / totalCostBasis)
		}
		snap.PositionWeight = weight
		if snap.Quantity > 0 {
			weightSum += weight
		}

		if err := s.snapshotRepo.UpdateWeightTx(tx, snap.ID, weight); err != nil {
			return err
		}
	}

	if totalCostBasis > 0 && math.Abs(weightSum-1) > weightEpsilon {
		log.Printf("weight invariant violated for portfolio %s on %s: sum=%.6f: %v",
			portfolioID, repository.FormatDate(date), weightSum, apperrors.ErrInconsistentState)
	}

	return nil
}

// positionReturn computes a holding's total return percentage from the
// current price and average cost. A non-positive average cost yields 0,
// never a division error.
func positionReturn(price, averageCost float64) float64 {
	if averageCost <= 0 {
		return 0
	}
	return round2(price/averageCost*100 - 100)
}
