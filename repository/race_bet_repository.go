package repository

import (
	"context"
	"fmt"

	"oasisbot/database"
	"oasisbot/models"

	"github.com/jackc/pgx/v5"
)

// RaceBetRepository implements the service.RaceBetRepository interface
type RaceBetRepository struct {
	q queryable
}

// NewRaceBetRepository creates a new race bet repository
func NewRaceBetRepository(db *database.DB) *RaceBetRepository {
	return &RaceBetRepository{q: db.Pool}
}

// newRaceBetRepositoryWithTx creates a new race bet repository with a transaction
func newRaceBetRepositoryWithTx(tx queryable) *RaceBetRepository {
	return &RaceBetRepository{q: tx}
}

// Create inserts a bet
func (r *RaceBetRepository) Create(ctx context.Context, bet *models.RaceBet) error {
	query := `
		INSERT INTO race_bets (
			guild_id, race_date, schedule_id, user_discord_id, pet_id, amount
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.GuildID,
		bet.RaceDate,
		bet.ScheduleID,
		bet.UserDiscordID,
		bet.PetID,
		bet.Amount,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create race bet: %w", err)
	}

	return nil
}

// ListBySchedule returns all bets on a race ordered by creation
func (r *RaceBetRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*models.RaceBet, error) {
	query := `
		SELECT id, guild_id, race_date, schedule_id, user_discord_id, pet_id, amount, created_at
		FROM race_bets
		WHERE schedule_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list race bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.RaceBet
	for rows.Next() {
		var b models.RaceBet
		err := rows.Scan(
			&b.ID,
			&b.GuildID,
			&b.RaceDate,
			&b.ScheduleID,
			&b.UserDiscordID,
			&b.PetID,
			&b.Amount,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race bet: %w", err)
		}
		bets = append(bets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate race bets: %w", err)
	}

	return bets, nil
}

// LockPool serializes concurrent stake intake on one race. The pool row is
// created on first use so SELECT ... FOR UPDATE always has a row to grab.
func (r *RaceBetRepository) LockPool(ctx context.Context, guildID, scheduleID int64) error {
	insert := `
		INSERT INTO race_pools (guild_id, schedule_id, total_pool)
		VALUES ($1, $2, 0)
		ON CONFLICT (guild_id, schedule_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, guildID, scheduleID); err != nil {
		return fmt.Errorf("failed to ensure pool row: %w", err)
	}

	lock := `
		SELECT total_pool FROM race_pools
		WHERE guild_id = $1 AND schedule_id = $2
		FOR UPDATE
	`
	var total int64
	if err := r.q.QueryRow(ctx, lock, guildID, scheduleID).Scan(&total); err != nil {
		return fmt.Errorf("failed to lock pool: %w", err)
	}

	return nil
}

// AddToPools upserts both roll-ups by the bet amount
func (r *RaceBetRepository) AddToPools(ctx context.Context, guildID, scheduleID, petID int64, amount int64) error {
	racePool := `
		INSERT INTO race_pools (guild_id, schedule_id, total_pool)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, schedule_id)
		DO UPDATE SET total_pool = race_pools.total_pool + EXCLUDED.total_pool
	`
	if _, err := r.q.Exec(ctx, racePool, guildID, scheduleID, amount); err != nil {
		return fmt.Errorf("failed to update race pool: %w", err)
	}

	petPool := `
		INSERT INTO race_pet_pools (guild_id, schedule_id, pet_id, total_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, schedule_id, pet_id)
		DO UPDATE SET total_amount = race_pet_pools.total_amount + EXCLUDED.total_amount
	`
	if _, err := r.q.Exec(ctx, petPool, guildID, scheduleID, petID, amount); err != nil {
		return fmt.Errorf("failed to update pet pool: %w", err)
	}

	return nil
}

// GetRacePool returns the race's total pool, zero-valued when no bets exist
func (r *RaceBetRepository) GetRacePool(ctx context.Context, guildID, scheduleID int64) (*models.RacePool, error) {
	query := `
		SELECT guild_id, schedule_id, total_pool
		FROM race_pools
		WHERE guild_id = $1 AND schedule_id = $2
	`

	var pool models.RacePool
	err := r.q.QueryRow(ctx, query, guildID, scheduleID).Scan(&pool.GuildID, &pool.ScheduleID, &pool.TotalPool)
	if err == pgx.ErrNoRows {
		return &models.RacePool{GuildID: guildID, ScheduleID: scheduleID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race pool: %w", err)
	}

	return &pool, nil
}

// ListPetPools returns the per-pet roll-ups for a race
func (r *RaceBetRepository) ListPetPools(ctx context.Context, guildID, scheduleID int64) ([]*models.PetPool, error) {
	query := `
		SELECT guild_id, schedule_id, pet_id, total_amount
		FROM race_pet_pools
		WHERE guild_id = $1 AND schedule_id = $2
		ORDER BY pet_id
	`

	rows, err := r.q.Query(ctx, query, guildID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pet pools: %w", err)
	}
	defer rows.Close()

	var pools []*models.PetPool
	for rows.Next() {
		var p models.PetPool
		if err := rows.Scan(&p.GuildID, &p.ScheduleID, &p.PetID, &p.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan pet pool: %w", err)
		}
		pools = append(pools, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pet pools: %w", err)
	}

	return pools, nil
}
