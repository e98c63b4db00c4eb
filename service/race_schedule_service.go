package service

import (
	"context"
	"fmt"
	"time"

	"oasisbot/config"
	"oasisbot/models"
)

type raceScheduleService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewRaceScheduleService creates a new race schedule service
func NewRaceScheduleService(uowFactory UnitOfWorkFactory, cfg *config.Config) RaceScheduleService {
	return &raceScheduleService{uowFactory: uowFactory, cfg: cfg}
}

// EnsureToday creates the day's race rows for a guild if absent
func (s *raceScheduleService) EnsureToday(ctx context.Context, guildID int64, date time.Time) error {
	date = date.In(config.Timezone)
	raceDate := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, config.Timezone)

	schedules := make([]*models.RaceSchedule, 0, len(s.cfg.RaceTimes))
	for i, rt := range s.cfg.RaceTimes {
		raceNo := i + 1
		schedules = append(schedules, &models.RaceSchedule{
			GuildID:           guildID,
			RaceDate:          raceDate,
			RaceNo:            raceNo,
			PostTime:          time.Date(date.Year(), date.Month(), date.Day(), rt.Hour, rt.Minute, 0, 0, config.Timezone),
			Distance:          s.cfg.DistanceFor(raceNo),
			EntryOpenMinutes:  s.cfg.EntryOpenMinutes,
			LockOffsetMinutes: s.cfg.LockOffsetMinutes,
			MaxEntries:        s.cfg.MaxEntries,
			EntryFee:          s.cfg.EntryFee,
		})
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RaceScheduleRepository().CreateDay(ctx, schedules); err != nil {
		return fmt.Errorf("failed to create day schedules: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get fetches one schedule by natural key
func (s *raceScheduleService) Get(ctx context.Context, guildID int64, raceDate time.Time, raceNo int) (*models.RaceSchedule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedule, err := uow.RaceScheduleRepository().Get(ctx, guildID, raceDate, raceNo)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return nil, fmt.Errorf("race %d on %s: %w", raceNo, raceDate.Format("2006-01-02"), ErrNotFound)
	}

	return schedule, nil
}

// ListDay returns a guild's schedules for a date
func (s *raceScheduleService) ListDay(ctx context.Context, guildID int64, raceDate time.Time) ([]*models.RaceSchedule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedules, err := uow.RaceScheduleRepository().ListDay(ctx, guildID, raceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	return schedules, nil
}
