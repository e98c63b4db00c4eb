package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"oasisbot/config"
)

type dailyResetService struct {
	uowFactory      UnitOfWorkFactory
	scheduleService RaceScheduleService
}

// NewDailyResetService creates a new daily reset service
func NewDailyResetService(uowFactory UnitOfWorkFactory, scheduleService RaceScheduleService) DailyResetService {
	return &dailyResetService{
		uowFactory:      uowFactory,
		scheduleService: scheduleService,
	}
}

// RunDailyReset clears raced_today and creates the day's schedules for every
// known guild. The reset marker row makes the whole rollover idempotent per
// date, so a restart mid-morning does not reset twice.
func (s *dailyResetService) RunDailyReset(ctx context.Context, date time.Time) error {
	date = date.In(config.Timezone)
	resetDate := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, config.Timezone)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	fresh, err := uow.DailyResetRepository().TryMarkReset(ctx, resetDate)
	if err != nil {
		return fmt.Errorf("failed to mark daily reset: %w", err)
	}
	if !fresh {
		log.WithField("date", resetDate.Format("2006-01-02")).Debug("Daily reset already ran")
		return nil
	}

	cleared, err := uow.PetRepository().ResetRacedToday(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset raced_today: %w", err)
	}

	guildIDs, err := uow.GuildSettingsRepository().ListGuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list guilds: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, guildID := range guildIDs {
		if err := s.scheduleService.EnsureToday(ctx, guildID, resetDate); err != nil {
			log.WithError(err).WithField("guildId", guildID).Error("Failed to create day schedules")
		}
	}

	log.WithFields(log.Fields{
		"date":         resetDate.Format("2006-01-02"),
		"petsCleared":  cleared,
		"guildsSeeded": len(guildIDs),
	}).Info("Daily reset complete")

	return nil
}
