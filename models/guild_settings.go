package models

import (
	"time"
)

// GuildSettings holds per-guild configuration
type GuildSettings struct {
	GuildID       int64     `db:"guild_id"`
	RaceChannelID *int64    `db:"race_channel_id"`
	AdminRoleID   *int64    `db:"admin_role_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// HasRaceChannel checks if a race result channel is configured
func (gs *GuildSettings) HasRaceChannel() bool {
	return gs.RaceChannelID != nil && *gs.RaceChannelID != 0
}

// GetRaceChannelID returns the configured race channel or 0
func (gs *GuildSettings) GetRaceChannelID() int64 {
	if gs.RaceChannelID == nil {
		return 0
	}
	return *gs.RaceChannelID
}
