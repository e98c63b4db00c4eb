package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"oasisbot/bot/common"
)

// isAdmin resolves the guild's stored settings first so a configured admin
// role grants access alongside the Discord administrator permission
func (f *Feature) isAdmin(s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64) bool {
	settings, err := f.guildSettingsService.GetOrCreateSettings(context.Background(), guildID)
	if err != nil {
		log.Errorf("Failed to load settings for guild %d: %v", guildID, err)
		settings = nil
	}
	return common.IsUserAdmin(s, i, settings)
}

// handleRaceChannel handles the /settings race-channel command
func (f *Feature) handleRaceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		common.RespondWithError(s, i, "Failed to process command")
		return
	}
	if !f.isAdmin(s, i, guildID) {
		common.RespondWithError(s, i, "このコマンドは管理者専用です")
		return
	}

	options := i.ApplicationCommandData().Options[0].Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "チャンネルを指定してください")
		return
	}
	channel := options[0].ChannelValue(s)
	if channel == nil {
		common.RespondWithError(s, i, "チャンネルを指定してください")
		return
	}
	channelID, err := strconv.ParseInt(channel.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse channel ID: %v", err)
		common.RespondWithError(s, i, "Invalid channel selected")
		return
	}

	ctx := context.Background()
	if err := f.guildSettingsService.UpdateRaceChannel(ctx, guildID, channelID); err != nil {
		log.Errorf("Failed to update race channel: %v", err)
		common.RespondWithError(s, i, "設定の更新に失敗しました")
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("レース結果の投稿先を <#%d> に設定しました", channelID))
}

// handleAdminRole handles the /settings admin-role command
func (f *Feature) handleAdminRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		common.RespondWithError(s, i, "Failed to process command")
		return
	}
	if !f.isAdmin(s, i, guildID) {
		common.RespondWithError(s, i, "このコマンドは管理者専用です")
		return
	}

	options := i.ApplicationCommandData().Options[0].Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "ロールを指定してください")
		return
	}
	role := options[0].RoleValue(s, i.GuildID)
	if role == nil {
		common.RespondWithError(s, i, "ロールを指定してください")
		return
	}
	roleID, err := strconv.ParseInt(role.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse role ID: %v", err)
		common.RespondWithError(s, i, "Invalid role selected")
		return
	}

	ctx := context.Background()
	if err := f.guildSettingsService.UpdateAdminRole(ctx, guildID, roleID); err != nil {
		log.Errorf("Failed to update admin role: %v", err)
		common.RespondWithError(s, i, "設定の更新に失敗しました")
		return
	}

	common.RespondWithSuccess(s, i, fmt.Sprintf("管理者ロールを <@&%d> に設定しました", roleID))
}

// handleBackup handles the /settings backup command
func (f *Feature) handleBackup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		common.RespondWithError(s, i, "Failed to process command")
		return
	}
	if !f.isAdmin(s, i, guildID) {
		common.RespondWithError(s, i, "このコマンドは管理者専用です")
		return
	}

	ctx := context.Background()
	path, err := f.backupService.Snapshot(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to snapshot guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "バックアップの作成に失敗しました")
		return
	}

	log.WithFields(log.Fields{"guildId": guildID, "path": path}).Info("Guild backup created by admin command")
	common.RespondWithSuccess(s, i, "バックアップを作成しました")
}
