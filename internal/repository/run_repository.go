package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/apperrors"
)

// RunRepository provides data access methods for the scheduler_run table,
// which serializes scheduler invocations per (date, stage).
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the provided database connection.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// BeginRun claims the run slot for (date, stage) and returns its ID.
//
// The claim is a blind INSERT so two overlapping ticks can never both pass a
// pre-check: UNIQUE(run_date, stage) arbitrates, and the loser resolves the
// existing row instead:
//   - row finished: the slot is re-claimed under its ID (re-runs are legal,
//     the pipeline stages are idempotent)
//   - row unfinished: apperrors.ErrStaleRun
func (s *RunRepository) BeginRun(date time.Time, stage string) (string, error) {
	id := uuid.NewString()
	insert := `
		INSERT INTO scheduler_run (id, run_date, stage, started_at, finished_at)
		VALUES (?, ?, ?, ?, NULL)
	`
	_, err := s.db.Exec(insert, id, FormatDate(date), stage, time.Now().UTC().Format(time.RFC3339))
	if err == nil {
		return id, nil
	}
	if !isUniqueViolation(err) {
		return "", fmt.Errorf("failed to insert scheduler_run: %w", err)
	}

	var existingID string
	var finished sql.NullString
	query := `
		SELECT id, finished_at
		FROM scheduler_run
		WHERE run_date = ? AND stage = ?
	`
	if err := s.db.QueryRow(query, FormatDate(date), stage).Scan(&existingID, &finished); err != nil {
		return "", fmt.Errorf("failed to query scheduler_run table: %w", err)
	}
	if !finished.Valid {
		return "", apperrors.ErrStaleRun
	}

	update := `
		UPDATE scheduler_run
		SET started_at = ?, finished_at = NULL
		WHERE id = ?
	`
	if _, err := s.db.Exec(update, time.Now().UTC().Format(time.RFC3339), existingID); err != nil {
		return "", fmt.Errorf("failed to reclaim scheduler_run: %w", err)
	}
	return existingID, nil
}

// isUniqueViolation matches the driver's UNIQUE constraint error. The sqlite
// driver exposes no typed constraint error, so the message is the contract.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FinishRun marks the run as completed.
func (s *RunRepository) FinishRun(runID string) error {
	query := `
		UPDATE scheduler_run
		SET finished_at = ?
		WHERE id = ?
	`
	_, err := s.db.Exec(query, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("failed to finish scheduler_run: %w", err)
	}
	return nil
}
