package repository

import (
	"context"
	"fmt"

	"oasisbot/database"
	"oasisbot/models"
	"oasisbot/service"

	"github.com/jackc/pgx/v5"
)

const entryColumns = `
	id, schedule_id, guild_id, race_date, pet_id, owner_discord_id,
	status, paid, rank, score, created_at`

// RaceEntryRepository implements the service.RaceEntryRepository interface
type RaceEntryRepository struct {
	q queryable
}

// NewRaceEntryRepository creates a new race entry repository
func NewRaceEntryRepository(db *database.DB) *RaceEntryRepository {
	return &RaceEntryRepository{q: db.Pool}
}

// newRaceEntryRepositoryWithTx creates a new race entry repository with a transaction
func newRaceEntryRepositoryWithTx(tx queryable) *RaceEntryRepository {
	return &RaceEntryRepository{q: tx}
}

func scanEntry(row pgx.Row) (*models.RaceEntry, error) {
	var e models.RaceEntry
	err := row.Scan(
		&e.ID,
		&e.ScheduleID,
		&e.GuildID,
		&e.RaceDate,
		&e.PetID,
		&e.OwnerDiscordID,
		&e.Status,
		&e.Paid,
		&e.Rank,
		&e.Score,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts an entry. The unique (race_date, schedule_id, pet_id) key
// turns double entries into ErrDuplicateEntry.
func (r *RaceEntryRepository) Create(ctx context.Context, entry *models.RaceEntry) error {
	query := `
		INSERT INTO race_entries (
			schedule_id, guild_id, race_date, pet_id, owner_discord_id, status, paid
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.ScheduleID,
		entry.GuildID,
		entry.RaceDate,
		entry.PetID,
		entry.OwnerDiscordID,
		entry.Status,
		entry.Paid,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pet %d in race %d: %w", entry.PetID, entry.ScheduleID, service.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create race entry: %w", err)
	}

	return nil
}

// ListBySchedule returns all entries for a race ordered by created_at, id
func (r *RaceEntryRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*models.RaceEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM race_entries
		WHERE schedule_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, scheduleID)
}

// ListByStatus returns a race's entries with the given status
func (r *RaceEntryRepository) ListByStatus(ctx context.Context, scheduleID int64, status models.EntryStatus) ([]*models.RaceEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM race_entries
		WHERE schedule_id = $1 AND status = $2
		ORDER BY created_at, id
	`
	return r.list(ctx, query, scheduleID, status)
}

// GetByPet returns the entry of one pet in a race
func (r *RaceEntryRepository) GetByPet(ctx context.Context, scheduleID, petID int64) (*models.RaceEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM race_entries
		WHERE schedule_id = $1 AND pet_id = $2
	`

	e, err := scanEntry(r.q.QueryRow(ctx, query, scheduleID, petID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry for pet %d in race %d: %w", petID, scheduleID, err)
	}

	return e, nil
}

func (r *RaceEntryRepository) list(ctx context.Context, query string, args ...any) ([]*models.RaceEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list race entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.RaceEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate race entries: %w", err)
	}

	return entries, nil
}

// UpdateStatus transitions an entry out of pending. The guard keeps the
// pending -> selected|rejected transition one-shot.
func (r *RaceEntryRepository) UpdateStatus(ctx context.Context, entryID int64, status models.EntryStatus) error {
	query := `
		UPDATE race_entries
		SET status = $1
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, entryID)
	if err != nil {
		return fmt.Errorf("failed to update entry %d status: %w", entryID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry %d is not pending: %w", entryID, service.ErrInvalidTransition)
	}

	return nil
}

// SetResult decorates an entry with its rank and score after the race
func (r *RaceEntryRepository) SetResult(ctx context.Context, entryID int64, rank int, score float64) error {
	query := `
		UPDATE race_entries
		SET rank = $1, score = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, rank, score, entryID)
	if err != nil {
		return fmt.Errorf("failed to set result for entry %d: %w", entryID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", entryID, service.ErrNotFound)
	}

	return nil
}
