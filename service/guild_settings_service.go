package service

import (
	"context"
	"fmt"
	"sync"

	"oasisbot/models"
)

// guildSettingsService implements GuildSettingsService with a process-scoped
// cache keyed by guild. Writes invalidate the cached entry.
type guildSettingsService struct {
	uowFactory UnitOfWorkFactory

	mu    sync.RWMutex
	cache map[int64]*models.GuildSettings
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(uowFactory UnitOfWorkFactory) GuildSettingsService {
	return &guildSettingsService{
		uowFactory: uowFactory,
		cache:      make(map[int64]*models.GuildSettings),
	}
}

// GetOrCreateSettings retrieves guild settings, serving cached values until
// they are invalidated by a write
func (s *guildSettingsService) GetOrCreateSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	s.mu.RLock()
	if settings, ok := s.cache[guildID]; ok {
		s.mu.RUnlock()
		return settings, nil
	}
	s.mu.RUnlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.GuildSettingsRepository().GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create guild settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	s.cache[guildID] = settings
	s.mu.Unlock()

	return settings, nil
}

// UpdateRaceChannel updates the race result channel for a guild
func (s *guildSettingsService) UpdateRaceChannel(ctx context.Context, guildID, channelID int64) error {
	return s.update(ctx, guildID, func(settings *models.GuildSettings) {
		settings.RaceChannelID = &channelID
	})
}

// UpdateAdminRole updates the admin role for a guild
func (s *guildSettingsService) UpdateAdminRole(ctx context.Context, guildID, roleID int64) error {
	return s.update(ctx, guildID, func(settings *models.GuildSettings) {
		settings.AdminRoleID = &roleID
	})
}

func (s *guildSettingsService) update(ctx context.Context, guildID int64, mutate func(*models.GuildSettings)) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.GuildSettingsRepository().GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}

	mutate(settings)

	if err := uow.GuildSettingsRepository().UpdateGuildSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, guildID)
	s.mu.Unlock()

	return nil
}
