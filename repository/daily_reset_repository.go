package repository

import (
	"context"
	"fmt"
	"time"

	"oasisbot/database"
)

// DailyResetRepository implements the service.DailyResetRepository interface
type DailyResetRepository struct {
	q queryable
}

// NewDailyResetRepository creates a new daily reset repository
func NewDailyResetRepository(db *database.DB) *DailyResetRepository {
	return &DailyResetRepository{q: db.Pool}
}

// newDailyResetRepositoryWithTx creates a new daily reset repository with a transaction
func newDailyResetRepositoryWithTx(tx queryable) *DailyResetRepository {
	return &DailyResetRepository{q: tx}
}

// TryMarkReset records the reset for a date. A conflict means the reset
// already ran today, so repeated calls are no-ops.
func (r *DailyResetRepository) TryMarkReset(ctx context.Context, resetDate time.Time) (bool, error) {
	query := `
		INSERT INTO daily_reset_runs (reset_date)
		VALUES ($1)
		ON CONFLICT (reset_date) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, resetDate)
	if err != nil {
		return false, fmt.Errorf("failed to mark daily reset: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
