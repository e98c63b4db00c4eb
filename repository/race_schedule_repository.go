package repository

import (
	"context"
	"fmt"
	"time"

	"oasisbot/database"
	"oasisbot/models"
	"oasisbot/service"

	"github.com/jackc/pgx/v5"
)

const scheduleColumns = `
	id, guild_id, race_date, race_no, post_time, distance,
	entry_open_minutes, lock_offset_minutes, max_entries, entry_fee,
	locked, lottery_done, race_finished, abandoned, created_at`

// advisory lock class for race schedules, so schedule IDs don't collide with
// other advisory lock users on the same database
const scheduleLockClass = 0x52414345 // "RACE"

// RaceScheduleRepository implements the service.RaceScheduleRepository interface
type RaceScheduleRepository struct {
	q queryable
}

// NewRaceScheduleRepository creates a new race schedule repository
func NewRaceScheduleRepository(db *database.DB) *RaceScheduleRepository {
	return &RaceScheduleRepository{q: db.Pool}
}

// newRaceScheduleRepositoryWithTx creates a new race schedule repository with a transaction
func newRaceScheduleRepositoryWithTx(tx queryable) *RaceScheduleRepository {
	return &RaceScheduleRepository{q: tx}
}

func scanSchedule(row pgx.Row) (*models.RaceSchedule, error) {
	var s models.RaceSchedule
	err := row.Scan(
		&s.ID,
		&s.GuildID,
		&s.RaceDate,
		&s.RaceNo,
		&s.PostTime,
		&s.Distance,
		&s.EntryOpenMinutes,
		&s.LockOffsetMinutes,
		&s.MaxEntries,
		&s.EntryFee,
		&s.Locked,
		&s.LotteryDone,
		&s.RaceFinished,
		&s.Abandoned,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateDay inserts the day's schedules, skipping rows that already exist
func (r *RaceScheduleRepository) CreateDay(ctx context.Context, schedules []*models.RaceSchedule) error {
	query := `
		INSERT INTO race_schedules (
			guild_id, race_date, race_no, post_time, distance,
			entry_open_minutes, lock_offset_minutes, max_entries, entry_fee
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (guild_id, race_date, race_no) DO NOTHING
	`

	for _, s := range schedules {
		_, err := r.q.Exec(ctx, query,
			s.GuildID,
			s.RaceDate,
			s.RaceNo,
			s.PostTime,
			s.Distance,
			s.EntryOpenMinutes,
			s.LockOffsetMinutes,
			s.MaxEntries,
			s.EntryFee,
		)
		if err != nil {
			return fmt.Errorf("failed to create schedule %d for guild %d: %w", s.RaceNo, s.GuildID, err)
		}
	}

	return nil
}

// GetByID retrieves a schedule by its ID
func (r *RaceScheduleRepository) GetByID(ctx context.Context, id int64) (*models.RaceSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM race_schedules WHERE id = $1`

	s, err := scanSchedule(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule %d: %w", id, err)
	}

	return s, nil
}

// Get retrieves one schedule by its natural key
func (r *RaceScheduleRepository) Get(ctx context.Context, guildID int64, raceDate time.Time, raceNo int) (*models.RaceSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM race_schedules
		WHERE guild_id = $1 AND race_date = $2 AND race_no = $3
	`

	s, err := scanSchedule(r.q.QueryRow(ctx, query, guildID, raceDate, raceNo))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race %d on %s: %w", raceNo, raceDate.Format("2006-01-02"), err)
	}

	return s, nil
}

// ListDay returns a guild's schedules for a date ordered by race_no
func (r *RaceScheduleRepository) ListDay(ctx context.Context, guildID int64, raceDate time.Time) ([]*models.RaceSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM race_schedules
		WHERE guild_id = $1 AND race_date = $2
		ORDER BY race_no
	`
	return r.list(ctx, query, guildID, raceDate)
}

// ListUnfinished returns all schedules across guilds that have not settled
// yet, oldest post time first. Includes past days so a restarted process can
// catch up on races it slept through.
func (r *RaceScheduleRepository) ListUnfinished(ctx context.Context) ([]*models.RaceSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM race_schedules
		WHERE NOT race_finished
		ORDER BY post_time, id
	`
	return r.list(ctx, query)
}

func (r *RaceScheduleRepository) list(ctx context.Context, query string, args ...any) ([]*models.RaceSchedule, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*models.RaceSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	return schedules, nil
}

// Mark sets one monotonic flag. The conditional update enforces forward-only
// motion: a flag that is already set affects zero rows and surfaces as
// ErrInvalidTransition.
func (r *RaceScheduleRepository) Mark(ctx context.Context, scheduleID int64, flag service.ScheduleFlag) error {
	var query string
	switch flag {
	case service.FlagLocked:
		query = `UPDATE race_schedules SET locked = TRUE WHERE id = $1 AND NOT locked`
	case service.FlagLotteryDone:
		query = `UPDATE race_schedules SET lottery_done = TRUE WHERE id = $1 AND locked AND NOT lottery_done`
	case service.FlagRaceFinished:
		query = `UPDATE race_schedules SET race_finished = TRUE WHERE id = $1 AND lottery_done AND NOT race_finished`
	default:
		return fmt.Errorf("unknown schedule flag %q", flag)
	}

	result, err := r.q.Exec(ctx, query, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to mark schedule %d %s: %w", scheduleID, flag, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %d flag %s: %w", scheduleID, flag, service.ErrInvalidTransition)
	}

	return nil
}

// MarkAbandoned closes a race with no result in one statement
func (r *RaceScheduleRepository) MarkAbandoned(ctx context.Context, scheduleID int64) error {
	query := `
		UPDATE race_schedules
		SET locked = TRUE, lottery_done = TRUE, race_finished = TRUE, abandoned = TRUE
		WHERE id = $1 AND NOT race_finished
	`

	result, err := r.q.Exec(ctx, query, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to abandon schedule %d: %w", scheduleID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %d already finished: %w", scheduleID, service.ErrInvalidTransition)
	}

	return nil
}

// TryAdvisoryLock takes the per-schedule advisory lock for the current
// transaction. It is released automatically at commit or rollback.
func (r *RaceScheduleRepository) TryAdvisoryLock(ctx context.Context, scheduleID int64) (bool, error) {
	key := int64(scheduleLockClass)<<32 | (scheduleID & 0xffffffff)

	var acquired bool
	err := r.q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, key).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to take advisory lock for schedule %d: %w", scheduleID, err)
	}
	return acquired, nil
}
