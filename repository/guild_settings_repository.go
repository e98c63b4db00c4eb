package repository

import (
	"context"
	"fmt"

	"oasisbot/database"
	"oasisbot/models"
)

// GuildSettingsRepository implements the service.GuildSettingsRepository interface
type GuildSettingsRepository struct {
	q queryable
}

// NewGuildSettingsRepository creates a new guild settings repository
func NewGuildSettingsRepository(db *database.DB) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: db.Pool}
}

// newGuildSettingsRepositoryWithTx creates a new guild settings repository with a transaction
func newGuildSettingsRepositoryWithTx(tx queryable) *GuildSettingsRepository {
	return &GuildSettingsRepository{q: tx}
}

// GetOrCreateGuildSettings retrieves guild settings or creates default ones
func (r *GuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	query := `
		INSERT INTO guild_settings (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING guild_id, race_channel_id, admin_role_id, created_at, updated_at
	`

	var settings models.GuildSettings
	err := r.q.QueryRow(ctx, query, guildID).Scan(
		&settings.GuildID,
		&settings.RaceChannelID,
		&settings.AdminRoleID,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get or create settings for guild %d: %w", guildID, err)
	}

	return &settings, nil
}

// UpdateGuildSettings updates guild settings
func (r *GuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *models.GuildSettings) error {
	query := `
		UPDATE guild_settings
		SET race_channel_id = $1, admin_role_id = $2, updated_at = NOW()
		WHERE guild_id = $3
	`

	result, err := r.q.Exec(ctx, query, settings.RaceChannelID, settings.AdminRoleID, settings.GuildID)
	if err != nil {
		return fmt.Errorf("failed to update settings for guild %d: %w", settings.GuildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild %d has no settings row", settings.GuildID)
	}

	return nil
}

// ListGuildIDs returns every guild that has settings stored
func (r *GuildSettingsRepository) ListGuildIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT guild_id FROM guild_settings ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guild ids: %w", err)
	}

	return ids, nil
}
