package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"oasisbot/config"
	"oasisbot/service"
)

// DailyResetWorker runs the midnight rollover. The reset itself is idempotent
// per date, so the immediate startup run is safe after a restart.
type DailyResetWorker struct {
	resetService service.DailyResetService
	scheduler    gocron.Scheduler
}

// NewDailyResetWorker creates a new daily reset worker
func NewDailyResetWorker(resetService service.DailyResetService) (*DailyResetWorker, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(config.Timezone))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &DailyResetWorker{
		resetService: resetService,
		scheduler:    scheduler,
	}, nil
}

// Start runs the rollover for today immediately, then every midnight
func (w *DailyResetWorker) Start(ctx context.Context) error {
	run := func() {
		now := time.Now().In(config.Timezone)
		if err := w.resetService.RunDailyReset(ctx, now); err != nil {
			log.WithError(err).Error("Daily reset failed")
		}
	}

	_, err := w.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(run),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule daily reset job: %w", err)
	}

	w.scheduler.Start()
	log.Info("Daily reset worker started")

	// Catch up for today in case the process was down at midnight
	go run()
	return nil
}

// Stop shuts the scheduler down
func (w *DailyResetWorker) Stop() {
	if err := w.scheduler.Shutdown(); err != nil {
		log.WithError(err).Warn("Daily reset scheduler shutdown failed")
	}
}
