package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"oasisbot/config"
	"oasisbot/models"
)

// guildSnapshot is the on-disk shape of one guild backup
type guildSnapshot struct {
	SnapshotID string                 `json:"snapshot_id"`
	GuildID    int64                  `json:"guild_id"`
	TakenAt    time.Time              `json:"taken_at"`
	Users      []*models.User         `json:"users"`
	Pets       []*models.Pet          `json:"pets"`
	Schedules  []*models.RaceSchedule `json:"schedules"`
	Entries    []*models.RaceEntry    `json:"entries"`
	Bets       []*models.RaceBet      `json:"bets"`
	Settings   *models.GuildSettings  `json:"settings"`
}

type backupService struct {
	uowFactory UnitOfWorkFactory
	dir        string
}

// NewBackupService creates a new backup service writing snapshots under dir
func NewBackupService(uowFactory UnitOfWorkFactory, dir string) BackupService {
	return &backupService{uowFactory: uowFactory, dir: dir}
}

// Snapshot writes a JSON snapshot of a guild's economy state and returns the
// file path. All reads happen in one transaction so the snapshot is
// internally consistent.
func (s *backupService) Snapshot(ctx context.Context, guildID int64) (string, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := time.Now().In(config.Timezone)
	raceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.Timezone)

	snapshot := &guildSnapshot{
		SnapshotID: uuid.NewString(),
		GuildID:    guildID,
		TakenAt:    now,
	}

	var err error
	if snapshot.Users, err = uow.UserRepository().ListByGuild(ctx, guildID); err != nil {
		return "", fmt.Errorf("failed to list users: %w", err)
	}
	if snapshot.Pets, err = uow.PetRepository().ListByGuild(ctx, guildID); err != nil {
		return "", fmt.Errorf("failed to list pets: %w", err)
	}
	if snapshot.Schedules, err = uow.RaceScheduleRepository().ListDay(ctx, guildID, raceDate); err != nil {
		return "", fmt.Errorf("failed to list schedules: %w", err)
	}
	for _, schedule := range snapshot.Schedules {
		entries, err := uow.RaceEntryRepository().ListBySchedule(ctx, schedule.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list entries for race %d: %w", schedule.RaceNo, err)
		}
		snapshot.Entries = append(snapshot.Entries, entries...)

		bets, err := uow.RaceBetRepository().ListBySchedule(ctx, schedule.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list bets for race %d: %w", schedule.RaceNo, err)
		}
		snapshot.Bets = append(snapshot.Bets, bets...)
	}
	if snapshot.Settings, err = uow.GuildSettingsRepository().GetOrCreateGuildSettings(ctx, guildID); err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := fmt.Sprintf("guild-%d-%s-%s.json", guildID, now.Format("20060102-150405"), snapshot.SnapshotID[:8])
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.WithFields(log.Fields{
		"guildId": guildID,
		"path":    path,
		"users":   len(snapshot.Users),
		"pets":    len(snapshot.Pets),
	}).Info("Guild snapshot written")

	return path, nil
}
