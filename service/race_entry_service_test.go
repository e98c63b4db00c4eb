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

type entryTestMocks struct {
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	users    *MockUserRepository
	history  *MockBalanceHistoryRepository
	pets     *MockPetRepository
	schedule *MockRaceScheduleRepository
	entries  *MockRaceEntryRepository
}

func newEntryMocks(t *testing.T) *entryTestMocks {
	t.Helper()

	m := &entryTestMocks{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		users:    new(MockUserRepository),
		history:  new(MockBalanceHistoryRepository),
		pets:     new(MockPetRepository),
		schedule: new(MockRaceScheduleRepository),
		entries:  new(MockRaceEntryRepository),
	}
	m.uow.SetRepositories(m.users, m.history, m.pets, m.schedule, m.entries, nil, nil, nil)
	m.factory.On("Create").Return(m.uow)
	return m
}

// openSchedule is a schedule whose entry window contains raceClock
func openSchedule() *models.RaceSchedule {
	post := time.Date(2025, 1, 10, 9, 0, 0, 0, config.Timezone)
	return &models.RaceSchedule{
		ID:                1,
		GuildID:           777,
		RaceDate:          time.Date(2025, 1, 10, 0, 0, 0, 0, config.Timezone),
		RaceNo:            1,
		PostTime:          post,
		Distance:          1000,
		EntryOpenMinutes:  60,
		LockOffsetMinutes: 5,
		MaxEntries:        8,
		EntryFee:          50_000,
	}
}

// raceClock is a fixed instant inside openSchedule's entry window
var raceClock = time.Date(2025, 1, 10, 8, 30, 0, 0, config.Timezone)

func fixedNow() time.Time { return raceClock }

func adultPet(id, guildID, ownerID int64) *models.Pet {
	return &models.Pet{
		ID:             id,
		GuildID:        guildID,
		OwnerDiscordID: ownerID,
		Name:           "pochi",
		Stage:          models.PetStageAdult,
		Speed:          50,
		Power:          50,
		Stamina:        100,
	}
}

func TestRaceEntryService_Enter_Success(t *testing.T) {
	ctx := context.Background()
	m := newEntryMocks(t)
	service := NewRaceEntryService(m.factory, fixedNow)

	schedule := openSchedule()
	pet := adultPet(5, 777, 123)
	user := &models.User{DiscordID: 123, GuildID: 777, Balance: 100_000}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)

	m.schedule.On("GetByID", ctx, int64(1)).Return(schedule, nil)
	m.pets.On("GetByID", ctx, int64(5)).Return(pet, nil)
	m.users.On("GetByDiscordID", ctx, int64(777), int64(123)).Return(user, nil)
	m.users.On("DeductBalance", ctx, int64(777), int64(123), int64(50_000)).Return(nil)
	m.entries.On("Create", ctx, mock.MatchedBy(func(e *models.RaceEntry) bool {
		return e.ScheduleID == 1 && e.PetID == 5 && e.OwnerDiscordID == 123 &&
			e.Status == models.EntryStatusPending && e.Paid
	})).Return(nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == -50_000 && h.TransactionType == models.TransactionTypeRaceEntryFee
	})).Return(nil)

	entry, err := service.Enter(ctx, 777, 1, 123, 5)

	assert.NoError(t, err)
	assert.NotNil(t, entry)
	m.uow.AssertExpectations(t)
	m.entries.AssertExpectations(t)
	m.history.AssertExpectations(t)
}

func TestRaceEntryService_Enter_RaceNotOpen(t *testing.T) {
	ctx := context.Background()
	m := newEntryMocks(t)

	// Clock past the lock time
	lateClock := time.Date(2025, 1, 10, 8, 56, 0, 0, config.Timezone)
	service := NewRaceEntryService(m.factory, func() time.Time { return lateClock })

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(openSchedule(), nil)

	_, err := service.Enter(ctx, 777, 1, 123, 5)

	assert.ErrorIs(t, err, ErrRaceNotOpen)
	m.uow.AssertNotCalled(t, "Commit")
	m.users.AssertNotCalled(t, "DeductBalance")
}

func TestRaceEntryService_Enter_LockedSchedule(t *testing.T) {
	ctx := context.Background()
	m := newEntryMocks(t)
	service := NewRaceEntryService(m.factory, fixedNow)

	schedule := openSchedule()
	schedule.Locked = true

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(schedule, nil)

	_, err := service.Enter(ctx, 777, 1, 123, 5)

	assert.ErrorIs(t, err, ErrRaceNotOpen)
}

func TestRaceEntryService_Enter_IneligiblePet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.Pet)
		reason IneligibilityReason
	}{
		{"not owned", func(p *models.Pet) { p.OwnerDiscordID = 999 }, ReasonNotOwned},
		{"still an egg", func(p *models.Pet) { p.Stage = models.PetStageEgg }, ReasonNotAdult},
		{"already raced", func(p *models.Pet) { p.RacedToday = true }, ReasonAlreadyRacedToday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newEntryMocks(t)
			service := NewRaceEntryService(m.factory, fixedNow)

			pet := adultPet(5, 777, 123)
			tt.mutate(pet)

			m.uow.On("Begin", ctx).Return(nil)
			m.uow.On("Rollback").Return(nil)
			m.schedule.On("GetByID", ctx, int64(1)).Return(openSchedule(), nil)
			m.pets.On("GetByID", ctx, int64(5)).Return(pet, nil)

			_, err := service.Enter(ctx, 777, 1, 123, 5)

			var ineligible *PetIneligibleError
			assert.ErrorAs(t, err, &ineligible)
			assert.Equal(t, tt.reason, ineligible.Reason)
			m.users.AssertNotCalled(t, "DeductBalance")
		})
	}
}

func TestRaceEntryService_Enter_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	m := newEntryMocks(t)
	service := NewRaceEntryService(m.factory, fixedNow)

	user := &models.User{DiscordID: 123, GuildID: 777, Balance: 10_000}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(openSchedule(), nil)
	m.pets.On("GetByID", ctx, int64(5)).Return(adultPet(5, 777, 123), nil)
	m.users.On("GetByDiscordID", ctx, int64(777), int64(123)).Return(user, nil)

	_, err := service.Enter(ctx, 777, 1, 123, 5)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	m.uow.AssertNotCalled(t, "Commit")
	m.entries.AssertNotCalled(t, "Create")
}

func TestRaceEntryService_Enter_Duplicate(t *testing.T) {
	ctx := context.Background()
	m := newEntryMocks(t)
	service := NewRaceEntryService(m.factory, fixedNow)

	user := &models.User{DiscordID: 123, GuildID: 777, Balance: 100_000}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.schedule.On("GetByID", ctx, int64(1)).Return(openSchedule(), nil)
	m.pets.On("GetByID", ctx, int64(5)).Return(adultPet(5, 777, 123), nil)
	m.users.On("GetByDiscordID", ctx, int64(777), int64(123)).Return(user, nil)
	m.users.On("DeductBalance", ctx, int64(777), int64(123), int64(50_000)).Return(nil)
	m.entries.On("Create", ctx, mock.Anything).Return(ErrDuplicateEntry)

	_, err := service.Enter(ctx, 777, 1, 123, 5)

	assert.ErrorIs(t, err, ErrDuplicateEntry)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestRaceEntryService_ListEntries_GroupsByStatus(t *testing.T) {
	ctx := context.Background()
	m := newEntryMocks(t)
	service := NewRaceEntryService(m.factory, fixedNow)

	entries := []*models.RaceEntry{
		{ID: 1, Status: models.EntryStatusSelected},
		{ID: 2, Status: models.EntryStatusPending},
		{ID: 3, Status: models.EntryStatusRejected},
		{ID: 4, Status: models.EntryStatusSelected},
	}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.entries.On("ListBySchedule", ctx, int64(1)).Return(entries, nil)

	book, err := service.ListEntries(ctx, 1)

	assert.NoError(t, err)
	assert.Len(t, book.Selected, 2)
	assert.Len(t, book.Pending, 1)
	assert.Len(t, book.Rejected, 1)
}
