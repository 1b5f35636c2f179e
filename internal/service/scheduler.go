package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/config"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// failureBuffer bounds the scheduler's failure channel. Sends never block;
// when nobody drains the channel, older failures are dropped after logging.
const failureBuffer = 16

// Scheduler drives the three recurring passes on their cron cadences:
// price refresh, snapshot recomputation, metric aggregation.
//
// Snapshot and metric passes are serialized per (date, stage) through the
// scheduler_run table: a tick that finds a prior unfinished slot for its
// date no-ops with apperrors.ErrStaleRun instead of overlapping it.
type Scheduler struct {
	cron *cron.Cron
	cfg  config.EngineConfig

	snapshotService *SnapshotService
	metricService   *MetricService
	priceService    *PriceService
	portfolioRepo   *repository.PortfolioRepository
	runRepo         *repository.RunRepository

	failures chan error
}

// NewScheduler creates a Scheduler; Start registers the cron entries.
func NewScheduler(
	cfg config.EngineConfig,
	snapshotService *SnapshotService,
	metricService *MetricService,
	priceService *PriceService,
	portfolioRepo *repository.PortfolioRepository,
	runRepo *repository.RunRepository,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		cfg:             cfg,
		snapshotService: snapshotService,
		metricService:   metricService,
		priceService:    priceService,
		portfolioRepo:   portfolioRepo,
		runRepo:         runRepo,
		failures:        make(chan error, failureBuffer),
	}
}

// Start registers the cron entries and starts the scheduler goroutine.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func()
	}{
		{s.cfg.PriceCron, "price refresh", func() {
			if _, err := s.priceService.RefreshPrices(context.Background()); err != nil {
				s.reportFailure(fmt.Errorf("price refresh failed: %w", err))
			}
		}},
		{s.cfg.SnapshotCron, "snapshot recomputation", func() {
			if _, err := s.RunSnapshotPass(context.Background(), time.Now().UTC()); err != nil {
				s.reportFailure(err)
			}
		}},
		{s.cfg.MetricCron, "metric aggregation", func() {
			if err := s.RunMetricPass(time.Now().UTC()); err != nil {
				s.reportFailure(err)
			}
		}},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("failed to register %s schedule %q: %w", job.name, job.spec, err)
		}
	}

	s.cron.Start()
	log.Printf("scheduler started: price=%q snapshots=%q metrics=%q",
		s.cfg.PriceCron, s.cfg.SnapshotCron, s.cfg.MetricCron)
	return nil
}

// Stop stops the cron scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Print("scheduler stopped")
}

// Failures exposes cross-cutting run failures for operators. Per-row failures
// stay in the RunReport; only whole-run errors surface here.
func (s *Scheduler) Failures() <-chan error {
	return s.failures
}

// RunSnapshotPass claims the (date, snapshots) run slot and executes the
// snapshot recomputation. A concurrent unfinished run yields
// apperrors.ErrStaleRun and no work. The slot is released even when the run
// fails: the stages are idempotent and the next tick is the retry.
func (s *Scheduler) RunSnapshotPass(ctx context.Context, date time.Time) (model.RunReport, error) {
	date = repository.DateOnly(date)

	runID, err := s.runRepo.BeginRun(date, model.StageSnapshots)
	if errors.Is(err, apperrors.ErrStaleRun) {
		log.Printf("snapshot run for %s already in progress, skipping", repository.FormatDate(date))
		return model.RunReport{Date: date}, err
	}
	if err != nil {
		return model.RunReport{Date: date}, err
	}
	defer s.finishRun(runID)

	report, err := s.snapshotService.RecomputeSnapshots(ctx, date)
	if err != nil {
		return report, err
	}

	log.Printf("snapshot run %s: portfolios=%d created=%d revalued=%d failed=%d",
		repository.FormatDate(date), report.Portfolios, report.Created, report.Revalued, report.Failed)
	for _, rowErr := range report.Errors {
		log.Printf("snapshot run %s: %s", repository.FormatDate(date), rowErr)
	}

	return report, nil
}

// RunMetricPass claims the (date, metrics) run slot and aggregates metrics
// for every portfolio. Per-portfolio failures are logged and the remaining
// portfolios continue.
func (s *Scheduler) RunMetricPass(date time.Time) error {
	date = repository.DateOnly(date)

	runID, err := s.runRepo.BeginRun(date, model.StageMetrics)
	if errors.Is(err, apperrors.ErrStaleRun) {
		log.Printf("metric run for %s already in progress, skipping", repository.FormatDate(date))
		return err
	}
	if err != nil {
		return err
	}
	defer s.finishRun(runID)

	portfolios, err := s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
	if err != nil {
		return fmt.Errorf("failed to list portfolios: %w", err)
	}

	failed := 0
	for _, p := range portfolios {
		if _, err := s.metricService.AggregateMetrics(p.ID); err != nil {
			failed++
			log.Printf("metric aggregation failed for portfolio %s: %v", p.ID, err)
		}
	}

	log.Printf("metric run %s: portfolios=%d failed=%d", repository.FormatDate(date), len(portfolios), failed)
	return nil
}

func (s *Scheduler) finishRun(runID string) {
	if err := s.runRepo.FinishRun(runID); err != nil {
		log.Printf("failed to release run slot %s: %v", runID, err)
	}
}

func (s *Scheduler) reportFailure(err error) {
	log.Printf("scheduler: %v", err)
	select {
	case s.failures <- err:
	default:
	}
}
