package common

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"oasisbot/models"
)

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// RespondWithContent sends a plain text interaction response
func RespondWithContent(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Content: content,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// RespondWithEmbed sends an embed as an interaction response
func RespondWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// RespondWithSuccess sends an ephemeral success message
func RespondWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := RespondWithContent(s, i, "✅ "+message, true); err != nil {
		log.Errorf("Error sending success response: %v", err)
	}
}

// RespondWithError sends an ephemeral error message
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := RespondWithContent(s, i, "❌ "+message, true); err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// HasAdminRole checks whether the member holds the guild's configured
// admin role
func HasAdminRole(memberRoles []string, settings *models.GuildSettings) bool {
	if settings == nil || settings.AdminRoleID == nil || *settings.AdminRoleID == 0 {
		return false
	}
	want := strconv.FormatInt(*settings.AdminRoleID, 10)
	for _, roleID := range memberRoles {
		if roleID == want {
			return true
		}
	}
	return false
}

// IsUserAdmin checks whether the invoking member may run admin commands:
// either Discord administrator permission or the guild's configured admin role
func IsUserAdmin(s *discordgo.Session, i *discordgo.InteractionCreate, settings *models.GuildSettings) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	if HasAdminRole(i.Member.Roles, settings) {
		return true
	}

	guildID, userID := i.GuildID, i.Member.User.ID
	perms, err := s.UserChannelPermissions(userID, guildID)
	if err == nil && perms&discordgo.PermissionAdministrator != 0 {
		return true
	}

	member, err := s.GuildMember(guildID, userID)
	if err != nil || member == nil {
		return false
	}
	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		return false
	}
	if guild.OwnerID == userID {
		return true
	}
	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Permissions&discordgo.PermissionAdministrator != 0 {
				return true
			}
		}
	}
	return false
}
