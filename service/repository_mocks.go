package service

import (
	"context"
	"time"

	"oasisbot/events"
	"oasisbot/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, guildID, discordID int64) (*models.User, error) {
	args := m.Called(ctx, guildID, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, guildID, discordID int64, username string, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, guildID, discordID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ListByGuild(ctx context.Context, guildID int64) ([]*models.User, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, guildID, discordID int64, amount int64) error {
	args := m.Called(ctx, guildID, discordID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, guildID, discordID int64, amount int64) error {
	args := m.Called(ctx, guildID, discordID, amount)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, guildID, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, guildID, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockPetRepository is a mock implementation of PetRepository
type MockPetRepository struct {
	mock.Mock
}

func (m *MockPetRepository) GetByID(ctx context.Context, id int64) (*models.Pet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pet), args.Error(1)
}

func (m *MockPetRepository) ListByOwner(ctx context.Context, guildID, ownerDiscordID int64) ([]*models.Pet, error) {
	args := m.Called(ctx, guildID, ownerDiscordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pet), args.Error(1)
}

func (m *MockPetRepository) ListByGuild(ctx context.Context, guildID int64) ([]*models.Pet, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pet), args.Error(1)
}

func (m *MockPetRepository) SetRacedToday(ctx context.Context, petID int64, racedToday bool) error {
	args := m.Called(ctx, petID, racedToday)
	return args.Error(0)
}

func (m *MockPetRepository) ResetRacedToday(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRaceScheduleRepository is a mock implementation of RaceScheduleRepository
type MockRaceScheduleRepository struct {
	mock.Mock
}

func (m *MockRaceScheduleRepository) CreateDay(ctx context.Context, schedules []*models.RaceSchedule) error {
	args := m.Called(ctx, schedules)
	return args.Error(0)
}

func (m *MockRaceScheduleRepository) GetByID(ctx context.Context, id int64) (*models.RaceSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RaceSchedule), args.Error(1)
}

func (m *MockRaceScheduleRepository) Get(ctx context.Context, guildID int64, raceDate time.Time, raceNo int) (*models.RaceSchedule, error) {
	args := m.Called(ctx, guildID, raceDate, raceNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RaceSchedule), args.Error(1)
}

func (m *MockRaceScheduleRepository) ListDay(ctx context.Context, guildID int64, raceDate time.Time) ([]*models.RaceSchedule, error) {
	args := m.Called(ctx, guildID, raceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceSchedule), args.Error(1)
}

func (m *MockRaceScheduleRepository) ListUnfinished(ctx context.Context) ([]*models.RaceSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceSchedule), args.Error(1)
}

func (m *MockRaceScheduleRepository) Mark(ctx context.Context, scheduleID int64, flag ScheduleFlag) error {
	args := m.Called(ctx, scheduleID, flag)
	return args.Error(0)
}

func (m *MockRaceScheduleRepository) MarkAbandoned(ctx context.Context, scheduleID int64) error {
	args := m.Called(ctx, scheduleID)
	return args.Error(0)
}

func (m *MockRaceScheduleRepository) TryAdvisoryLock(ctx context.Context, scheduleID int64) (bool, error) {
	args := m.Called(ctx, scheduleID)
	return args.Bool(0), args.Error(1)
}

// MockRaceEntryRepository is a mock implementation of RaceEntryRepository
type MockRaceEntryRepository struct {
	mock.Mock
}

func (m *MockRaceEntryRepository) Create(ctx context.Context, entry *models.RaceEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRaceEntryRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*models.RaceEntry, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceEntry), args.Error(1)
}

func (m *MockRaceEntryRepository) ListByStatus(ctx context.Context, scheduleID int64, status models.EntryStatus) ([]*models.RaceEntry, error) {
	args := m.Called(ctx, scheduleID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceEntry), args.Error(1)
}

func (m *MockRaceEntryRepository) GetByPet(ctx context.Context, scheduleID, petID int64) (*models.RaceEntry, error) {
	args := m.Called(ctx, scheduleID, petID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RaceEntry), args.Error(1)
}

func (m *MockRaceEntryRepository) UpdateStatus(ctx context.Context, entryID int64, status models.EntryStatus) error {
	args := m.Called(ctx, entryID, status)
	return args.Error(0)
}

func (m *MockRaceEntryRepository) SetResult(ctx context.Context, entryID int64, rank int, score float64) error {
	args := m.Called(ctx, entryID, rank, score)
	return args.Error(0)
}

// MockRaceBetRepository is a mock implementation of RaceBetRepository
type MockRaceBetRepository struct {
	mock.Mock
}

func (m *MockRaceBetRepository) Create(ctx context.Context, bet *models.RaceBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockRaceBetRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*models.RaceBet, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaceBet), args.Error(1)
}

func (m *MockRaceBetRepository) LockPool(ctx context.Context, guildID, scheduleID int64) error {
	args := m.Called(ctx, guildID, scheduleID)
	return args.Error(0)
}

func (m *MockRaceBetRepository) AddToPools(ctx context.Context, guildID, scheduleID, petID int64, amount int64) error {
	args := m.Called(ctx, guildID, scheduleID, petID, amount)
	return args.Error(0)
}

func (m *MockRaceBetRepository) GetRacePool(ctx context.Context, guildID, scheduleID int64) (*models.RacePool, error) {
	args := m.Called(ctx, guildID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RacePool), args.Error(1)
}

func (m *MockRaceBetRepository) ListPetPools(ctx context.Context, guildID, scheduleID int64) ([]*models.PetPool, error) {
	args := m.Called(ctx, guildID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PetPool), args.Error(1)
}

// MockGuildSettingsRepository is a mock implementation of GuildSettingsRepository
type MockGuildSettingsRepository struct {
	mock.Mock
}

func (m *MockGuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *models.GuildSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockGuildSettingsRepository) ListGuildIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockDailyResetRepository is a mock implementation of DailyResetRepository
type MockDailyResetRepository struct {
	mock.Mock
}

func (m *MockDailyResetRepository) TryMarkReset(ctx context.Context, resetDate time.Time) (bool, error) {
	args := m.Called(ctx, resetDate)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// recordingPublisher collects published events without expectations
type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.published = append(p.published, e)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories so tests can assert against them directly.
type MockUnitOfWork struct {
	mock.Mock

	userRepo          UserRepository
	balanceHistory    BalanceHistoryRepository
	petRepo           PetRepository
	scheduleRepo      RaceScheduleRepository
	entryRepo         RaceEntryRepository
	betRepo           RaceBetRepository
	guildSettingsRepo GuildSettingsRepository
	dailyResetRepo    DailyResetRepository
	eventBus          EventPublisher
}

// SetRepositories wires the mock repositories a test wants to observe. Nil
// slots fall back to fresh recording defaults.
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	balanceHistory BalanceHistoryRepository,
	petRepo PetRepository,
	scheduleRepo RaceScheduleRepository,
	entryRepo RaceEntryRepository,
	betRepo RaceBetRepository,
	guildSettingsRepo GuildSettingsRepository,
	dailyResetRepo DailyResetRepository,
) {
	m.userRepo = userRepo
	m.balanceHistory = balanceHistory
	m.petRepo = petRepo
	m.scheduleRepo = scheduleRepo
	m.entryRepo = entryRepo
	m.betRepo = betRepo
	m.guildSettingsRepo = guildSettingsRepo
	m.dailyResetRepo = dailyResetRepo
	m.eventBus = &recordingPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.userRepo }

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistory
}

func (m *MockUnitOfWork) PetRepository() PetRepository { return m.petRepo }

func (m *MockUnitOfWork) RaceScheduleRepository() RaceScheduleRepository { return m.scheduleRepo }

func (m *MockUnitOfWork) RaceEntryRepository() RaceEntryRepository { return m.entryRepo }

func (m *MockUnitOfWork) RaceBetRepository() RaceBetRepository { return m.betRepo }

func (m *MockUnitOfWork) GuildSettingsRepository() GuildSettingsRepository {
	return m.guildSettingsRepo
}

func (m *MockUnitOfWork) DailyResetRepository() DailyResetRepository { return m.dailyResetRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.eventBus }

// PublishedEvents returns the events captured by the default recording bus
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	if rec, ok := m.eventBus.(*recordingPublisher); ok {
		return rec.published
	}
	return nil
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
