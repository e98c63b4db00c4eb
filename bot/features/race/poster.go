package race

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"oasisbot/events"
	"oasisbot/models"
	"oasisbot/service"
)

// ResultPoster posts settled race results to the guild's configured race
// channel. It satisfies the worker's poster interface so the worker package
// never imports discordgo.
type ResultPoster struct {
	session         *discordgo.Session
	petService      service.PetService
	settingsService service.GuildSettingsService
}

// NewResultPoster creates a new result poster
func NewResultPoster(session *discordgo.Session, petService service.PetService, settingsService service.GuildSettingsService) *ResultPoster {
	return &ResultPoster{
		session:         session,
		petService:      petService,
		settingsService: settingsService,
	}
}

// raceChannel resolves the guild's configured race channel. ok is false when
// no channel is set, which callers treat as a silent skip.
func (p *ResultPoster) raceChannel(ctx context.Context, guildID int64) (channelID string, ok bool, err error) {
	settings, err := p.settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get guild settings: %w", err)
	}
	if !settings.HasRaceChannel() {
		log.WithField("guildId", guildID).Debug("No race channel configured, skipping post")
		return "", false, nil
	}
	return strconv.FormatInt(settings.GetRaceChannelID(), 10), true, nil
}

// PostEntriesLocked announces the entry freeze ahead of the lottery
func (p *ResultPoster) PostEntriesLocked(ctx context.Context, ev events.RaceLockedEvent) error {
	channelID, ok, err := p.raceChannel(ctx, ev.GuildID)
	if err != nil || !ok {
		return err
	}
	if _, err := p.session.ChannelMessageSend(channelID, entriesLockedNotice(ev.RaceNo)); err != nil {
		return fmt.Errorf("failed to send lock notice: %w", err)
	}
	return nil
}

// PostLotteryResult announces the drawn runners. Abandoned races are skipped
// here; the result embed carries the cancellation.
func (p *ResultPoster) PostLotteryResult(ctx context.Context, ev events.LotteryDrawnEvent) error {
	if ev.Abandoned {
		return nil
	}
	channelID, ok, err := p.raceChannel(ctx, ev.GuildID)
	if err != nil || !ok {
		return err
	}

	petNames := make([]string, 0, len(ev.SelectedPets))
	for _, petID := range ev.SelectedPets {
		name := fmt.Sprintf("ペット%d", petID)
		if pet, err := p.petService.GetPet(ctx, petID); err == nil {
			name = pet.Name
		}
		petNames = append(petNames, name)
	}

	if _, err := p.session.ChannelMessageSend(channelID, lotteryNotice(ev.RaceNo, petNames, ev.RejectedCount)); err != nil {
		return fmt.Errorf("failed to send lottery notice: %w", err)
	}
	return nil
}

// PostRaceResult sends the result embed to the guild's race channel. Guilds
// without a configured channel are skipped silently.
func (p *ResultPoster) PostRaceResult(ctx context.Context, result *models.RaceResult) error {
	channelID, ok, err := p.raceChannel(ctx, result.Schedule.GuildID)
	if err != nil || !ok {
		return err
	}

	petNames := make(map[int64]string, len(result.Ranked))
	for _, entry := range result.Ranked {
		pet, err := p.petService.GetPet(ctx, entry.PetID)
		if err != nil {
			continue
		}
		petNames[entry.PetID] = pet.Name
	}

	embed := BuildResultEmbed(result, petNames)
	if _, err := p.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		return fmt.Errorf("failed to send result embed: %w", err)
	}
	return nil
}
