package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"oasisbot/bot/features/balance"
	"oasisbot/bot/features/race"
	"oasisbot/bot/features/settings"
	"oasisbot/events"
	"oasisbot/service"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

type Bot struct {
	config   Config
	session  *discordgo.Session
	eventBus *events.Bus

	balanceFeature  *balance.Feature
	raceFeature     *race.Feature
	settingsFeature *settings.Feature
	resultPoster    *race.ResultPoster
}

func New(
	config Config,
	userService service.UserService,
	petService service.PetService,
	scheduleService service.RaceScheduleService,
	entryService service.RaceEntryService,
	bettingService service.RaceBettingService,
	raceDayService service.RaceDayService,
	guildSettingsService service.GuildSettingsService,
	backupService service.BackupService,
	eventBus *events.Bus,
) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		config:          config,
		session:         dg,
		eventBus:        eventBus,
		balanceFeature:  balance.NewFeature(userService),
		raceFeature:     race.NewFeature(userService, petService, scheduleService, entryService, bettingService, raceDayService, guildSettingsService),
		settingsFeature: settings.NewFeature(guildSettingsService, backupService),
		resultPoster:    race.NewResultPoster(dg, petService, guildSettingsService),
	}

	bot.subscribeEvents()

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

// subscribeEvents posts lifecycle notices to the race channel as the race day
// services publish them
func (b *Bot) subscribeEvents() {
	b.eventBus.Subscribe(events.EventTypeRaceLocked, func(ctx context.Context, e events.Event) {
		ev, ok := e.(events.RaceLockedEvent)
		if !ok {
			return
		}
		if err := b.resultPoster.PostEntriesLocked(ctx, ev); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guildId": ev.GuildID,
				"raceNo":  ev.RaceNo,
			}).Error("Failed to post entry lock notice")
		}
	})
	b.eventBus.Subscribe(events.EventTypeLotteryDrawn, func(ctx context.Context, e events.Event) {
		ev, ok := e.(events.LotteryDrawnEvent)
		if !ok {
			return
		}
		if err := b.resultPoster.PostLotteryResult(ctx, ev); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guildId": ev.GuildID,
				"raceNo":  ev.RaceNo,
			}).Error("Failed to post lottery notice")
		}
	})
}

// Session exposes the underlying discord session
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// ResultPoster returns the poster the race day worker publishes through
func (b *Bot) ResultPoster() *race.ResultPoster {
	return b.resultPoster
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "balance":
		b.balanceFeature.HandleBalance(s, i)
	case "pay":
		b.balanceFeature.HandlePay(s, i)
	case "pets":
		b.raceFeature.HandlePets(s, i)
	case "race":
		b.raceFeature.HandleCommand(s, i)
	case "settings":
		b.settingsFeature.HandleCommand(s, i)
	case "レース即抽選":
		b.raceFeature.HandleForceLottery(s, i)
	}
}
