package service

import (
	"context"
	"testing"
	"time"

	"oasisbot/config"
	"oasisbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bettingTestMocks struct {
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	users    *MockUserRepository
	history  *MockBalanceHistoryRepository
	schedule *MockRaceScheduleRepository
	entries  *MockRaceEntryRepository
	bets     *MockRaceBetRepository
}

func newBettingMocks(t *testing.T) *bettingTestMocks {
	t.Helper()

	m := &bettingTestMocks{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		users:    new(MockUserRepository),
		history:  new(MockBalanceHistoryRepository),
		schedule: new(MockRaceScheduleRepository),
		entries:  new(MockRaceEntryRepository),
		bets:     new(MockRaceBetRepository),
	}
	m.uow.SetRepositories(m.users, m.history, nil, m.schedule, m.entries, m.bets, nil, nil)
	m.factory.On("Create").Return(m.uow)
	return m
}

// bettingSchedule is past its lottery with betting still open at raceClock
func bettingSchedule() *models.RaceSchedule {
	s := openSchedule()
	s.Locked = true
	s.LotteryDone = true
	return s
}

func TestRaceBettingService_PlaceBet_Success(t *testing.T) {
	ctx := context.Background()
	m := newBettingMocks(t)
	service := NewRaceBettingService(m.factory, fixedNow)

	schedule := bettingSchedule()
	entry := &models.RaceEntry{ID: 9, ScheduleID: 1, PetID: 5, Status: models.EntryStatusSelected}
	user := &models.User{DiscordID: 123, GuildID: 777, Balance: 100_000}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.schedule.On("GetByID", ctx, int64(1)).Return(schedule, nil)
	m.entries.On("GetByPet", ctx, int64(1), int64(5)).Return(entry, nil)
	m.bets.On("LockPool", ctx, int64(777), int64(1)).Return(nil)
	m.users.On("GetByDiscordID", ctx, int64(777), int64(123)).Return(user, nil)
	m.users.On("DeductBalance", ctx, int64(777), int64(123), int64(10_000)).Return(nil)
	m.bets.On("Create", ctx, mock.MatchedBy(func(b *models.RaceBet) bool {
		return b.ScheduleID == 1 && b.PetID == 5 && b.UserDiscordID == 123 && b.Amount == 10_000
	})).Return(nil)
	m.bets.On("AddToPools", ctx, int64(777), int64(1), int64(5), int64(10_000)).Return(nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == -10_000 && h.TransactionType == models.TransactionTypeRaceBet
	})).Return(nil)

	bet, err := service.PlaceBet(ctx, 777, 1, 123, 5, 10_000)

	assert.NoError(t, err)
	require.NotNil(t, bet)
	assert.Equal(t, int64(10_000), bet.Amount)
	m.uow.AssertExpectations(t)
	m.bets.AssertExpectations(t)
}

func TestRaceBettingService_PlaceBet_AmountInvalid(t *testing.T) {
	ctx := context.Background()
	m := newBettingMocks(t)
	service := NewRaceBettingService(m.factory, fixedNow)

	_, err := service.PlaceBet(ctx, 777, 1, 123, 5, 0)
	assert.ErrorIs(t, err, ErrAmountInvalid)

	_, err = service.PlaceBet(ctx, 777, 1, 123, 5, -100)
	assert.ErrorIs(t, err, ErrAmountInvalid)

	m.factory.AssertNotCalled(t, "Create")
}

func TestRaceBettingService_PlaceBet_RaceClosed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.RaceSchedule)
		clock  time.Time
	}{
		{"before lottery", func(s *models.RaceSchedule) { s.LotteryDone = false }, raceClock},
		{"already finished", func(s *models.RaceSchedule) { s.RaceFinished = true }, raceClock},
		{"post time reached", func(s *models.RaceSchedule) {}, time.Date(2025, 1, 10, 9, 0, 0, 0, config.Timezone)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBettingMocks(t)
			service := NewRaceBettingService(m.factory, func() time.Time { return tt.clock })

			schedule := bettingSchedule()
			tt.mutate(schedule)

			m.uow.On("Begin", ctx).Return(nil)
			m.uow.On("Rollback").Return(nil)
			m.schedule.On("GetByID", ctx, int64(1)).Return(schedule, nil)

			_, err := service.PlaceBet(ctx, 777, 1, 123, 5, 1000)

			assert.ErrorIs(t, err, ErrRaceClosed)
			m.users.AssertNotCalled(t, "DeductBalance")
		})
	}
}

func TestRaceBettingService_PlaceBet_PetNotInRace(t *testing.T) {
	ctx := context.Background()
	m := newBettingMocks(t)
	service := NewRaceBettingService(m.factory, fixedNow)

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(bettingSchedule(), nil)
	m.entries.On("GetByPet", ctx, int64(1), int64(5)).Return(nil, nil)

	_, err := service.PlaceBet(ctx, 777, 1, 123, 5, 1000)

	assert.ErrorIs(t, err, ErrPetNotInRace)
}

func TestRaceBettingService_PlaceBet_RejectedEntry(t *testing.T) {
	ctx := context.Background()
	m := newBettingMocks(t)
	service := NewRaceBettingService(m.factory, fixedNow)

	rejected := &models.RaceEntry{ID: 9, ScheduleID: 1, PetID: 5, Status: models.EntryStatusRejected}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(bettingSchedule(), nil)
	m.entries.On("GetByPet", ctx, int64(1), int64(5)).Return(rejected, nil)

	_, err := service.PlaceBet(ctx, 777, 1, 123, 5, 1000)

	assert.ErrorIs(t, err, ErrPetNotInRace)
}

func TestRaceBettingService_PlaceBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	m := newBettingMocks(t)
	service := NewRaceBettingService(m.factory, fixedNow)

	entry := &models.RaceEntry{ID: 9, ScheduleID: 1, PetID: 5, Status: models.EntryStatusSelected}
	user := &models.User{DiscordID: 123, GuildID: 777, Balance: 500}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(bettingSchedule(), nil)
	m.entries.On("GetByPet", ctx, int64(1), int64(5)).Return(entry, nil)
	m.bets.On("LockPool", ctx, int64(777), int64(1)).Return(nil)
	m.users.On("GetByDiscordID", ctx, int64(777), int64(123)).Return(user, nil)

	_, err := service.PlaceBet(ctx, 777, 1, 123, 5, 1000)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	m.bets.AssertNotCalled(t, "Create")
	m.uow.AssertNotCalled(t, "Commit")
}

func TestRaceBettingService_QuoteOdds(t *testing.T) {
	ctx := context.Background()
	m := newBettingMocks(t)
	service := NewRaceBettingService(m.factory, fixedNow)

	selected := []*models.RaceEntry{
		{ID: 1, ScheduleID: 1, PetID: 5, Status: models.EntryStatusSelected},
		{ID: 2, ScheduleID: 1, PetID: 6, Status: models.EntryStatusSelected},
		{ID: 3, ScheduleID: 1, PetID: 7, Status: models.EntryStatusSelected},
	}
	pool := &models.RacePool{GuildID: 777, ScheduleID: 1, TotalPool: 30_000}
	petPools := []*models.PetPool{
		{GuildID: 777, ScheduleID: 1, PetID: 5, TotalAmount: 10_000},
		{GuildID: 777, ScheduleID: 1, PetID: 6, TotalAmount: 20_000},
	}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(bettingSchedule(), nil)
	m.entries.On("ListByStatus", ctx, int64(1), models.EntryStatusSelected).Return(selected, nil)
	m.bets.On("GetRacePool", ctx, int64(777), int64(1)).Return(pool, nil)
	m.bets.On("ListPetPools", ctx, int64(777), int64(1)).Return(petPools, nil)

	quotes, err := service.QuoteOdds(ctx, 777, 1)

	assert.NoError(t, err)
	require.Len(t, quotes, 3)

	require.NotNil(t, quotes[0].Odds)
	assert.InDelta(t, 3.0, *quotes[0].Odds, 1e-9)
	require.NotNil(t, quotes[1].Odds)
	assert.InDelta(t, 1.5, *quotes[1].Odds, 1e-9)
	// No stake on pet 7 yet
	assert.Nil(t, quotes[2].Odds)
	assert.Zero(t, quotes[2].Stake)
}
