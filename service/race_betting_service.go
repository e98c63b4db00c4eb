package service

import (
	"context"
	"fmt"
	"time"

	"oasisbot/models"
)

type raceBettingService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewRaceBettingService creates a new race betting service
func NewRaceBettingService(uowFactory UnitOfWorkFactory, now func() time.Time) RaceBettingService {
	if now == nil {
		now = time.Now
	}
	return &raceBettingService{uowFactory: uowFactory, now: now}
}

// PlaceBet stakes amount on a selected pet. The pool row is locked first so
// concurrent bets on the same race serialize; both roll-ups and the bettor's
// balance move in one transaction.
func (s *raceBettingService) PlaceBet(ctx context.Context, guildID, scheduleID, userDiscordID, petID int64, amount int64) (*models.RaceBet, error) {
	if amount <= 0 {
		return nil, ErrAmountInvalid
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedule, err := uow.RaceScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil || schedule.GuildID != guildID {
		return nil, fmt.Errorf("schedule %d: %w", scheduleID, ErrNotFound)
	}
	if !schedule.BettingOpen(s.now()) {
		return nil, ErrRaceClosed
	}

	entry, err := uow.RaceEntryRepository().GetByPet(ctx, scheduleID, petID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil || entry.Status != models.EntryStatusSelected {
		return nil, ErrPetNotInRace
	}

	if err := uow.RaceBetRepository().LockPool(ctx, guildID, scheduleID); err != nil {
		return nil, fmt.Errorf("failed to lock pool: %w", err)
	}

	user, err := uow.UserRepository().GetByDiscordID(ctx, guildID, userDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userDiscordID, ErrNotFound)
	}
	if user.Balance < amount {
		return nil, fmt.Errorf("stake is %d, balance is %d: %w", amount, user.Balance, ErrInsufficientFunds)
	}

	if err := uow.UserRepository().DeductBalance(ctx, guildID, userDiscordID, amount); err != nil {
		return nil, err
	}

	bet := &models.RaceBet{
		GuildID:       guildID,
		RaceDate:      schedule.RaceDate,
		ScheduleID:    scheduleID,
		UserDiscordID: userDiscordID,
		PetID:         petID,
		Amount:        amount,
	}
	if err := uow.RaceBetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if err := uow.RaceBetRepository().AddToPools(ctx, guildID, scheduleID, petID, amount); err != nil {
		return nil, fmt.Errorf("failed to update pools: %w", err)
	}

	history := &models.BalanceHistory{
		DiscordID:       userDiscordID,
		GuildID:         guildID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeRaceBet,
	}
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record bet: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

// QuoteOdds returns informational odds for each selected pet. A pet's quote is
// total_pool / pet_stake; nil odds mean nothing has been staked on it yet.
// Quotes drift as more bets arrive and carry no payout guarantee.
func (s *raceBettingService) QuoteOdds(ctx context.Context, guildID, scheduleID int64) ([]*models.PetOdds, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedule, err := uow.RaceScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil || schedule.GuildID != guildID {
		return nil, fmt.Errorf("schedule %d: %w", scheduleID, ErrNotFound)
	}

	selected, err := uow.RaceEntryRepository().ListByStatus(ctx, scheduleID, models.EntryStatusSelected)
	if err != nil {
		return nil, fmt.Errorf("failed to list selected entries: %w", err)
	}

	pool, err := uow.RaceBetRepository().GetRacePool(ctx, guildID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get race pool: %w", err)
	}

	petPools, err := uow.RaceBetRepository().ListPetPools(ctx, guildID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pet pools: %w", err)
	}
	stakes := make(map[int64]int64, len(petPools))
	for _, pp := range petPools {
		stakes[pp.PetID] = pp.TotalAmount
	}

	quotes := make([]*models.PetOdds, 0, len(selected))
	for _, entry := range selected {
		quote := &models.PetOdds{PetID: entry.PetID, Stake: stakes[entry.PetID]}
		if quote.Stake > 0 {
			odds := float64(pool.TotalPool) / float64(quote.Stake)
			quote.Odds = &odds
		}
		quotes = append(quotes, quote)
	}

	return quotes, nil
}
