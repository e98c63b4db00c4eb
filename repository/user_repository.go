package repository

import (
	"context"
	"fmt"

	"oasisbot/database"
	"oasisbot/models"
	"oasisbot/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByDiscordID retrieves a user by guild and Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, guildID, discordID int64) (*models.User, error) {
	query := `
		SELECT discord_id, guild_id, username, balance, created_at, updated_at
		FROM users
		WHERE guild_id = $1 AND discord_id = $2
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, guildID, discordID).Scan(
		&user.DiscordID,
		&user.GuildID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d in guild %d: %w", discordID, guildID, err)
	}

	return &user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, guildID, discordID int64, username string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (discord_id, guild_id, username, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING discord_id, guild_id, username, balance, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, discordID, guildID, username, initialBalance).Scan(
		&user.DiscordID,
		&user.GuildID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user %d in guild %d: %w", discordID, guildID, err)
	}

	return &user, nil
}

// ListByGuild returns all users in a guild ordered by creation time
func (r *UserRepository) ListByGuild(ctx context.Context, guildID int64) ([]*models.User, error) {
	query := `
		SELECT discord_id, guild_id, username, balance, created_at, updated_at
		FROM users
		WHERE guild_id = $1
		ORDER BY created_at, discord_id
	`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users in guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.DiscordID,
			&user.GuildID,
			&user.Username,
			&user.Balance,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// AddBalance adds to a user's balance atomically
func (r *UserRepository) AddBalance(ctx context.Context, guildID, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE guild_id = $2 AND discord_id = $3
	`

	result, err := r.q.Exec(ctx, query, amount, guildID, discordID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d in guild %d: %w", discordID, guildID, service.ErrNotFound)
	}

	return nil
}

// DeductBalance deducts from a user's balance atomically, refusing to go
// below zero
func (r *UserRepository) DeductBalance(ctx context.Context, guildID, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE guild_id = $2 AND discord_id = $3 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, guildID, discordID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByDiscordID(ctx, guildID, discordID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user %d in guild %d: %w", discordID, guildID, service.ErrNotFound)
		}
		return fmt.Errorf("have %d, need %d: %w", user.Balance, amount, service.ErrInsufficientFunds)
	}

	return nil
}
