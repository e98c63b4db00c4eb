package service

import (
	"context"
	"testing"
	"time"

	"oasisbot/config"
	"oasisbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockScheduleService struct {
	mock.Mock
}

func (m *mockScheduleService) EnsureToday(ctx context.Context, guildID int64, date time.Time) error {
	args := m.Called(ctx, guildID, date)
	return args.Error(0)
}

func (m *mockScheduleService) Get(ctx context.Context, guildID int64, raceDate time.Time, raceNo int) (*models.RaceSchedule, error) {
	args := m.Called(ctx, guildID, raceDate, raceNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RaceSchedule), args.Error(1)
}

func (m *mockScheduleService) ListDay(ctx context.Context, guildID int64, raceDate time.Time) ([]*models.RaceSchedule, error) {
	args := m.Called(ctx, guildID, raceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceSchedule), args.Error(1)
}

func TestDailyResetService_RunDailyReset(t *testing.T) {
	ctx := context.Background()

	uow := new(MockUnitOfWork)
	factory := new(MockUnitOfWorkFactory)
	pets := new(MockPetRepository)
	guildSettings := new(MockGuildSettingsRepository)
	dailyReset := new(MockDailyResetRepository)
	schedules := new(mockScheduleService)

	uow.SetRepositories(nil, nil, pets, nil, nil, nil, guildSettings, dailyReset)
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)

	// Local noon in a foreign zone still resolves to the JST date
	noon := time.Date(2025, 1, 10, 3, 0, 0, 0, time.UTC)
	midnight := time.Date(2025, 1, 10, 0, 0, 0, 0, config.Timezone)

	dailyReset.On("TryMarkReset", ctx, midnight).Return(true, nil)
	pets.On("ResetRacedToday", ctx).Return(int64(12), nil)
	guildSettings.On("ListGuildIDs", ctx).Return([]int64{777, 888}, nil)
	schedules.On("EnsureToday", ctx, int64(777), midnight).Return(nil)
	schedules.On("EnsureToday", ctx, int64(888), midnight).Return(nil)

	service := NewDailyResetService(factory, schedules)
	err := service.RunDailyReset(ctx, noon)

	assert.NoError(t, err)
	pets.AssertExpectations(t)
	schedules.AssertExpectations(t)
	uow.AssertCalled(t, "Commit")
}

func TestDailyResetService_RunDailyReset_AlreadyRan(t *testing.T) {
	ctx := context.Background()

	uow := new(MockUnitOfWork)
	factory := new(MockUnitOfWorkFactory)
	pets := new(MockPetRepository)
	dailyReset := new(MockDailyResetRepository)
	schedules := new(mockScheduleService)

	uow.SetRepositories(nil, nil, pets, nil, nil, nil, nil, dailyReset)
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)

	dailyReset.On("TryMarkReset", ctx, mock.AnythingOfType("time.Time")).Return(false, nil)

	service := NewDailyResetService(factory, schedules)
	err := service.RunDailyReset(ctx, time.Now())

	assert.NoError(t, err)
	pets.AssertNotCalled(t, "ResetRacedToday")
	schedules.AssertNotCalled(t, "EnsureToday")
	uow.AssertNotCalled(t, "Commit")
}
