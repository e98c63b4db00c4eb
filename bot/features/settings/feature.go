package settings

import (
	"oasisbot/service"

	"github.com/bwmarrin/discordgo"
)

// Feature handles guild settings management
type Feature struct {
	guildSettingsService service.GuildSettingsService
	backupService        service.BackupService
}

// NewFeature creates a new settings feature instance
func NewFeature(guildSettingsService service.GuildSettingsService, backupService service.BackupService) *Feature {
	return &Feature{
		guildSettingsService: guildSettingsService,
		backupService:        backupService,
	}
}

// HandleCommand routes settings commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "race-channel":
		f.handleRaceChannel(s, i)
	case "admin-role":
		f.handleAdminRole(s, i)
	case "backup":
		f.handleBackup(s, i)
	}
}
