package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"oasisbot/api"
	"oasisbot/bot"
	"oasisbot/config"
	"oasisbot/database"
	"oasisbot/events"
	"oasisbot/repository"
	"oasisbot/service"
	"oasisbot/worker"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting oasis bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	userService := service.NewUserService(uowFactory, cfg.StartingBalance)
	petService := service.NewPetService(uowFactory)
	guildSettingsService := service.NewGuildSettingsService(uowFactory)
	scheduleService := service.NewRaceScheduleService(uowFactory, cfg)
	entryService := service.NewRaceEntryService(uowFactory, nil)
	bettingService := service.NewRaceBettingService(uowFactory, nil)
	raceDayService := service.NewRaceDayService(uowFactory, cfg)
	dailyResetService := service.NewDailyResetService(uowFactory, scheduleService)
	backupService := service.NewBackupService(uowFactory, cfg.BackupDir)
	log.Println("Services initialized successfully")

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}
	discordBot, err := bot.New(botConfig, userService, petService, scheduleService, entryService, bettingService, raceDayService, guildSettingsService, backupService, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Start workers
	resetWorker, err := worker.NewDailyResetWorker(dailyResetService)
	if err != nil {
		return fmt.Errorf("failed to create daily reset worker: %w", err)
	}
	if err := resetWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start daily reset worker: %w", err)
	}

	raceWorker, err := worker.NewRaceDayWorker(raceDayService, discordBot.ResultPoster())
	if err != nil {
		return fmt.Errorf("failed to create race day worker: %w", err)
	}
	if err := raceWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start race day worker: %w", err)
	}

	// Start the read API
	apiServer := api.NewServer(cfg.APIAddr, scheduleService, entryService, bettingService, petService)
	apiServer.Start(ctx)

	// Nightly snapshot for each known guild
	startBackupLoop(ctx, uowFactory, backupService)

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")
	raceWorker.Stop()
	resetWorker.Stop()

	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// startBackupLoop snapshots every known guild once a day
func startBackupLoop(ctx context.Context, uowFactory service.UnitOfWorkFactory, backupService service.BackupService) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snapshotAllGuilds(ctx, uowFactory, backupService)
			}
		}
	}()
}

func snapshotAllGuilds(ctx context.Context, uowFactory service.UnitOfWorkFactory, backupService service.BackupService) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.Printf("Backup pass failed to begin transaction: %v", err)
		return
	}
	guildIDs, err := uow.GuildSettingsRepository().ListGuildIDs(ctx)
	uow.Rollback()
	if err != nil {
		log.Printf("Backup pass failed to list guilds: %v", err)
		return
	}

	for _, guildID := range guildIDs {
		if _, err := backupService.Snapshot(ctx, guildID); err != nil {
			log.Printf("Backup failed for guild %d: %v", guildID, err)
		}
	}
}
