package service

import (
	"context"
	"testing"

	"oasisbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSettingsMocks(t *testing.T) (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockGuildSettingsRepository) {
	t.Helper()

	uow := new(MockUnitOfWork)
	factory := new(MockUnitOfWorkFactory)
	repo := new(MockGuildSettingsRepository)

	uow.SetRepositories(nil, nil, nil, nil, nil, nil, repo, nil)
	factory.On("Create").Return(uow)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)
	return uow, factory, repo
}

func TestGuildSettingsService_GetOrCreateSettings_Caches(t *testing.T) {
	ctx := context.Background()
	_, factory, repo := newSettingsMocks(t)
	service := NewGuildSettingsService(factory)

	settings := &models.GuildSettings{GuildID: 777}
	repo.On("GetOrCreateGuildSettings", ctx, int64(777)).Return(settings, nil).Once()

	first, err := service.GetOrCreateSettings(ctx, 777)
	assert.NoError(t, err)

	// Second read is served from the cache without touching the repository
	second, err := service.GetOrCreateSettings(ctx, 777)
	assert.NoError(t, err)
	assert.Same(t, first, second)
	repo.AssertExpectations(t)
}

func TestGuildSettingsService_UpdateRaceChannel_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	_, factory, repo := newSettingsMocks(t)
	service := NewGuildSettingsService(factory)

	stale := &models.GuildSettings{GuildID: 777}
	repo.On("GetOrCreateGuildSettings", ctx, int64(777)).Return(stale, nil).Once()

	_, err := service.GetOrCreateSettings(ctx, 777)
	assert.NoError(t, err)

	channelID := int64(4242)
	updated := &models.GuildSettings{GuildID: 777}
	repo.On("GetOrCreateGuildSettings", ctx, int64(777)).Return(updated, nil)
	repo.On("UpdateGuildSettings", ctx, mock.MatchedBy(func(s *models.GuildSettings) bool {
		return s.RaceChannelID != nil && *s.RaceChannelID == channelID
	})).Return(nil)

	err = service.UpdateRaceChannel(ctx, 777, channelID)
	assert.NoError(t, err)

	// The write dropped the cached entry, so this refetches
	after, err := service.GetOrCreateSettings(ctx, 777)
	assert.NoError(t, err)
	assert.NotSame(t, stale, after)
	repo.AssertExpectations(t)
}
