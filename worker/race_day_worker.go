package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"oasisbot/config"
	"oasisbot/models"
	"oasisbot/service"
)

// ResultPoster posts settled race results to the guild's race channel. The
// bot layer implements it; the worker stays free of Discord imports.
type ResultPoster interface {
	PostRaceResult(ctx context.Context, result *models.RaceResult) error
}

// RaceDayWorker ticks the race lifecycle forward once a minute. The first
// pass on startup also settles anything that came due while the process was
// down.
type RaceDayWorker struct {
	raceDayService service.RaceDayService
	poster         ResultPoster
	scheduler      gocron.Scheduler
}

// NewRaceDayWorker creates a new race day worker
func NewRaceDayWorker(raceDayService service.RaceDayService, poster ResultPoster) (*RaceDayWorker, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(config.Timezone))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &RaceDayWorker{
		raceDayService: raceDayService,
		poster:         poster,
		scheduler:      scheduler,
	}, nil
}

// Start runs a catch-up pass immediately and then ticks every minute until
// the context is cancelled
func (w *RaceDayWorker) Start(ctx context.Context) error {
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() { w.tick(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule race day job: %w", err)
	}

	w.scheduler.Start()
	log.Info("Race day worker started")
	return nil
}

// Stop shuts the scheduler down
func (w *RaceDayWorker) Stop() {
	if err := w.scheduler.Shutdown(); err != nil {
		log.WithError(err).Warn("Race day scheduler shutdown failed")
	}
}

func (w *RaceDayWorker) tick(ctx context.Context) {
	now := time.Now().In(config.Timezone)

	results, err := w.raceDayService.AdvanceDueSchedules(ctx, now)
	if err != nil {
		log.WithError(err).Error("Race day pass failed")
		return
	}

	for _, result := range results {
		if w.poster == nil {
			continue
		}
		if err := w.poster.PostRaceResult(ctx, result); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"guildId": result.Schedule.GuildID,
				"raceNo":  result.Schedule.RaceNo,
			}).Error("Failed to post race result")
		}
	}
}
