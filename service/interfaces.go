package service

import (
	"context"
	"time"

	"oasisbot/events"
	"oasisbot/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByDiscordID retrieves a user by guild and Discord ID, nil if absent
	GetByDiscordID(ctx context.Context, guildID, discordID int64) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, guildID, discordID int64, username string, initialBalance int64) (*models.User, error)

	// ListByGuild returns all users in a guild
	ListByGuild(ctx context.Context, guildID int64) ([]*models.User, error)

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, guildID, discordID int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, returning
	// ErrInsufficientFunds instead of going below zero
	DeductBalance(ctx context.Context, guildID, discordID int64, amount int64) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, guildID, discordID int64, limit int) ([]*models.BalanceHistory, error)
}

// PetRepository defines the interface for pet data access
type PetRepository interface {
	// GetByID retrieves a pet by its ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Pet, error)

	// ListByOwner returns all pets owned by a user in a guild
	ListByOwner(ctx context.Context, guildID, ownerDiscordID int64) ([]*models.Pet, error)

	// ListByGuild returns all pets in a guild
	ListByGuild(ctx context.Context, guildID int64) ([]*models.Pet, error)

	// SetRacedToday flips the daily race flag for one pet
	SetRacedToday(ctx context.Context, petID int64, racedToday bool) error

	// ResetRacedToday clears the daily race flag for every pet, returning
	// the number of rows touched
	ResetRacedToday(ctx context.Context) (int64, error)
}

// ScheduleFlag identifies one of the monotonic race schedule flags
type ScheduleFlag string

const (
	FlagLocked       ScheduleFlag = "locked"
	FlagLotteryDone  ScheduleFlag = "lottery_done"
	FlagRaceFinished ScheduleFlag = "race_finished"
)

// RaceScheduleRepository defines the interface for race schedule data access
type RaceScheduleRepository interface {
	// CreateDay inserts the day's schedules, skipping rows that already
	// exist. Idempotent.
	CreateDay(ctx context.Context, schedules []*models.RaceSchedule) error

	// GetByID retrieves a schedule, nil if absent
	GetByID(ctx context.Context, id int64) (*models.RaceSchedule, error)

	// Get retrieves one schedule by its natural key, nil if absent
	Get(ctx context.Context, guildID int64, raceDate time.Time, raceNo int) (*models.RaceSchedule, error)

	// ListDay returns a guild's schedules for a date ordered by race_no
	ListDay(ctx context.Context, guildID int64, raceDate time.Time) ([]*models.RaceSchedule, error)

	// ListUnfinished returns all schedules across guilds that have not
	// settled yet, oldest post time first
	ListUnfinished(ctx context.Context) ([]*models.RaceSchedule, error)

	// Mark sets one monotonic flag; returns ErrInvalidTransition when the
	// flag is already set (callers treat that as success-equivalent)
	Mark(ctx context.Context, scheduleID int64, flag ScheduleFlag) error

	// MarkAbandoned closes a race with no result: lottery_done,
	// race_finished and abandoned in one statement
	MarkAbandoned(ctx context.Context, scheduleID int64) error

	// TryAdvisoryLock takes the per-schedule advisory lock for the current
	// transaction; false means another worker holds it
	TryAdvisoryLock(ctx context.Context, scheduleID int64) (bool, error)
}

// RaceEntryRepository defines the interface for race entry data access
type RaceEntryRepository interface {
	// Create inserts an entry; a duplicate (race_date, schedule, pet) key
	// surfaces as ErrDuplicateEntry
	Create(ctx context.Context, entry *models.RaceEntry) error

	// ListBySchedule returns all entries for a race ordered by created_at, id
	ListBySchedule(ctx context.Context, scheduleID int64) ([]*models.RaceEntry, error)

	// ListByStatus returns a race's entries with the given status
	ListByStatus(ctx context.Context, scheduleID int64, status models.EntryStatus) ([]*models.RaceEntry, error)

	// GetByPet returns the entry of one pet in a race, nil if absent
	GetByPet(ctx context.Context, scheduleID, petID int64) (*models.RaceEntry, error)

	// UpdateStatus transitions an entry out of pending
	UpdateStatus(ctx context.Context, entryID int64, status models.EntryStatus) error

	// SetResult decorates an entry with its rank and score after the race
	SetResult(ctx context.Context, entryID int64, rank int, score float64) error
}

// RaceBetRepository defines the interface for bet and pool data access
type RaceBetRepository interface {
	// Create inserts a bet
	Create(ctx context.Context, bet *models.RaceBet) error

	// ListBySchedule returns all bets on a race
	ListBySchedule(ctx context.Context, scheduleID int64) ([]*models.RaceBet, error)

	// LockPool serializes concurrent stake intake on one race's pool row
	LockPool(ctx context.Context, guildID, scheduleID int64) error

	// AddToPools upserts both roll-ups by the bet amount
	AddToPools(ctx context.Context, guildID, scheduleID, petID int64, amount int64) error

	// GetRacePool returns the race's total pool; zero-valued if no bets yet
	GetRacePool(ctx context.Context, guildID, scheduleID int64) (*models.RacePool, error)

	// ListPetPools returns the per-pet roll-ups for a race
	ListPetPools(ctx context.Context, guildID, scheduleID int64) ([]*models.PetPool, error)
}

// GuildSettingsRepository defines the interface for guild settings data access
type GuildSettingsRepository interface {
	// GetOrCreateGuildSettings retrieves guild settings or creates default ones
	GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error)

	// UpdateGuildSettings updates guild settings
	UpdateGuildSettings(ctx context.Context, settings *models.GuildSettings) error

	// ListGuildIDs returns every guild that has settings stored
	ListGuildIDs(ctx context.Context) ([]int64, error)
}

// DailyResetRepository tracks the once-per-day reset marker
type DailyResetRepository interface {
	// TryMarkReset records the reset for a date; false means it already ran
	TryMarkReset(ctx context.Context, resetDate time.Time) (bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork bundles the repositories behind a single transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	PetRepository() PetRepository
	RaceScheduleRepository() RaceScheduleRepository
	RaceEntryRepository() RaceEntryRepository
	RaceBetRepository() RaceBetRepository
	GuildSettingsRepository() GuildSettingsRepository
	DailyResetRepository() DailyResetRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService defines the interface for user operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates a new one with
	// the configured starting balance
	GetOrCreateUser(ctx context.Context, guildID, discordID int64, username string) (*models.User, error)

	// TransferBetweenUsers transfers amount from sender to recipient
	TransferBetweenUsers(ctx context.Context, guildID, fromDiscordID, toDiscordID int64, amount int64, toUsername string) error
}

// PetService defines the narrow pet capability set the race engine consumes
type PetService interface {
	// GetPet retrieves a pet by ID
	GetPet(ctx context.Context, petID int64) (*models.Pet, error)

	// ListUserPets returns a user's pets in a guild
	ListUserPets(ctx context.Context, guildID, ownerDiscordID int64) ([]*models.Pet, error)
}

// GuildSettingsService defines the interface for guild settings operations
type GuildSettingsService interface {
	// GetOrCreateSettings retrieves guild settings, serving cached values
	// until they are invalidated by a write
	GetOrCreateSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error)

	// UpdateRaceChannel updates the race result channel for a guild
	UpdateRaceChannel(ctx context.Context, guildID, channelID int64) error

	// UpdateAdminRole updates the admin role for a guild
	UpdateAdminRole(ctx context.Context, guildID, roleID int64) error
}

// RaceScheduleService defines the race registry operations
type RaceScheduleService interface {
	// EnsureToday creates the day's race rows for a guild if absent
	EnsureToday(ctx context.Context, guildID int64, date time.Time) error

	// Get fetches one schedule by natural key; ErrNotFound when absent
	Get(ctx context.Context, guildID int64, raceDate time.Time, raceNo int) (*models.RaceSchedule, error)

	// ListDay returns a guild's schedules for a date
	ListDay(ctx context.Context, guildID int64, raceDate time.Time) ([]*models.RaceSchedule, error)
}

// RaceEntryService defines entry book operations
type RaceEntryService interface {
	// Enter registers a pet for a race, deducting the entry fee in the
	// same transaction
	Enter(ctx context.Context, guildID, scheduleID, userDiscordID, petID int64) (*models.RaceEntry, error)

	// ListEntries returns a race's entries grouped by status
	ListEntries(ctx context.Context, scheduleID int64) (*models.EntryBook, error)

	// SelectedOf returns the selected runners ordered by entry time
	SelectedOf(ctx context.Context, scheduleID int64) ([]*models.RaceEntry, error)
}

// RaceBettingService defines pari-mutuel betting operations
type RaceBettingService interface {
	// PlaceBet stakes amount on a selected pet, updating both pool
	// roll-ups and the bettor's balance atomically
	PlaceBet(ctx context.Context, guildID, scheduleID, userDiscordID, petID int64, amount int64) (*models.RaceBet, error)

	// QuoteOdds returns informational odds for each selected pet
	QuoteOdds(ctx context.Context, guildID, scheduleID int64) ([]*models.PetOdds, error)
}

// RaceDayService drives the race lifecycle. Every transition is idempotent:
// re-invoking one on a schedule already past it is a no-op.
type RaceDayService interface {
	// AdvanceDueSchedules inspects all unfinished schedules and advances
	// each through lock -> lottery -> simulate -> payout as far as the
	// clock allows. Returns the results of races settled during the pass.
	AdvanceDueSchedules(ctx context.Context, now time.Time) ([]*models.RaceResult, error)

	// ForceLottery locks and draws the next upcoming race today for a
	// guild regardless of the clock. Debug use.
	ForceLottery(ctx context.Context, guildID int64, now time.Time) (*models.RaceSchedule, error)
}

// DailyResetService performs the once-per-day rollover
type DailyResetService interface {
	// RunDailyReset clears raced_today and creates the day's schedules
	// for every known guild. Idempotent per date.
	RunDailyReset(ctx context.Context, date time.Time) error
}

// BackupService exports guild state snapshots
type BackupService interface {
	// Snapshot writes a JSON snapshot of a guild's economy state and
	// returns the file path
	Snapshot(ctx context.Context, guildID int64) (string, error)
}
