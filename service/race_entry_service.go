package service

import (
	"context"
	"fmt"
	"time"

	"oasisbot/models"
)

type raceEntryService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewRaceEntryService creates a new race entry service
func NewRaceEntryService(uowFactory UnitOfWorkFactory, now func() time.Time) RaceEntryService {
	if now == nil {
		now = time.Now
	}
	return &raceEntryService{uowFactory: uowFactory, now: now}
}

// checkEligibility validates a pet against the entry rules. The same checks
// run again at lottery time so a pet that raced elsewhere in between still
// gets rejected.
func checkEligibility(pet *models.Pet, ownerDiscordID int64) error {
	if pet.OwnerDiscordID != ownerDiscordID {
		return &PetIneligibleError{PetID: pet.ID, Reason: ReasonNotOwned}
	}
	if !pet.IsAdult() {
		return &PetIneligibleError{PetID: pet.ID, Reason: ReasonNotAdult}
	}
	if pet.RacedToday {
		return &PetIneligibleError{PetID: pet.ID, Reason: ReasonAlreadyRacedToday}
	}
	return nil
}

// Enter registers a pet for a race, deducting the entry fee in the same
// transaction
func (s *raceEntryService) Enter(ctx context.Context, guildID, scheduleID, userDiscordID, petID int64) (*models.RaceEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedule, err := uow.RaceScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule %d: %w", scheduleID, ErrNotFound)
	}
	if schedule.GuildID != guildID {
		return nil, fmt.Errorf("schedule %d: %w", scheduleID, ErrNotFound)
	}
	if !schedule.EntriesOpen(s.now()) {
		return nil, ErrRaceNotOpen
	}

	pet, err := uow.PetRepository().GetByID(ctx, petID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	if pet == nil || pet.GuildID != guildID {
		return nil, fmt.Errorf("pet %d: %w", petID, ErrNotFound)
	}
	if err := checkEligibility(pet, userDiscordID); err != nil {
		return nil, err
	}

	user, err := uow.UserRepository().GetByDiscordID(ctx, guildID, userDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userDiscordID, ErrNotFound)
	}
	if user.Balance < schedule.EntryFee {
		return nil, fmt.Errorf("entry fee is %d, balance is %d: %w", schedule.EntryFee, user.Balance, ErrInsufficientFunds)
	}

	if err := uow.UserRepository().DeductBalance(ctx, guildID, userDiscordID, schedule.EntryFee); err != nil {
		return nil, err
	}

	entry := &models.RaceEntry{
		ScheduleID:     scheduleID,
		GuildID:        guildID,
		RaceDate:       schedule.RaceDate,
		PetID:          petID,
		OwnerDiscordID: userDiscordID,
		Status:         models.EntryStatusPending,
		Paid:           true,
	}
	if err := uow.RaceEntryRepository().Create(ctx, entry); err != nil {
		return nil, err
	}

	history := &models.BalanceHistory{
		DiscordID:       userDiscordID,
		GuildID:         guildID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - schedule.EntryFee,
		ChangeAmount:    -schedule.EntryFee,
		TransactionType: models.TransactionTypeRaceEntryFee,
	}
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record entry fee: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entry, nil
}

// ListEntries returns a race's entries grouped by status
func (s *raceEntryService) ListEntries(ctx context.Context, scheduleID int64) (*models.EntryBook, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.RaceEntryRepository().ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	book := &models.EntryBook{}
	for _, entry := range entries {
		switch entry.Status {
		case models.EntryStatusSelected:
			book.Selected = append(book.Selected, entry)
		case models.EntryStatusRejected:
			book.Rejected = append(book.Rejected, entry)
		default:
			book.Pending = append(book.Pending, entry)
		}
	}

	return book, nil
}

// SelectedOf returns the selected runners ordered by entry time
func (s *raceEntryService) SelectedOf(ctx context.Context, scheduleID int64) ([]*models.RaceEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.RaceEntryRepository().ListByStatus(ctx, scheduleID, models.EntryStatusSelected)
	if err != nil {
		return nil, fmt.Errorf("failed to list selected entries: %w", err)
	}

	return entries, nil
}
