package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"oasisbot/config"
	"oasisbot/events"
	"oasisbot/models"
)

// raceDayService drives each schedule through its lifecycle:
// lock -> lottery -> simulate -> payout. Each schedule is advanced inside its
// own transaction under a per-schedule advisory lock, so concurrent workers
// and the debug command never double-settle a race.
type raceDayService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewRaceDayService creates a new race day service
func NewRaceDayService(uowFactory UnitOfWorkFactory, cfg *config.Config) RaceDayService {
	return &raceDayService{uowFactory: uowFactory, cfg: cfg}
}

// AdvanceDueSchedules inspects all unfinished schedules and advances each as
// far as the clock allows. A schedule that errors is logged and skipped; the
// pass continues with the rest.
func (s *raceDayService) AdvanceDueSchedules(ctx context.Context, now time.Time) ([]*models.RaceResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	schedules, err := uow.RaceScheduleRepository().ListUnfinished(ctx)
	uow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished schedules: %w", err)
	}

	var results []*models.RaceResult
	for _, schedule := range schedules {
		result, err := s.advanceSchedule(ctx, schedule.ID, now)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"scheduleId": schedule.ID,
				"guildId":    schedule.GuildID,
				"raceNo":     schedule.RaceNo,
			}).Error("Failed to advance race schedule")
			continue
		}
		if result != nil {
			results = append(results, result)
		}
	}

	return results, nil
}

// advanceSchedule moves one schedule through every transition it is due for,
// all within a single transaction guarded by the schedule's advisory lock.
func (s *raceDayService) advanceSchedule(ctx context.Context, scheduleID int64, now time.Time) (*models.RaceResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	locked, err := uow.RaceScheduleRepository().TryAdvisoryLock(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !locked {
		// Another worker is on it
		return nil, nil
	}

	schedule, err := uow.RaceScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil || schedule.RaceFinished {
		return nil, nil
	}

	if schedule.DueForLock(now) {
		if err := s.lockEntries(ctx, uow, schedule); err != nil {
			return nil, err
		}
	}

	var result *models.RaceResult
	if schedule.DueForLottery() {
		result, err = s.runLottery(ctx, uow, schedule)
		if err != nil {
			return nil, err
		}
	}

	// An abandoned lottery marks the race finished, so it never also starts
	if schedule.DueForStart(now) {
		result, err = s.runRace(ctx, uow, schedule)
		if err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// ForceLottery locks and draws the next undrawn race today for a guild
// regardless of the clock. Debug use.
func (s *raceDayService) ForceLottery(ctx context.Context, guildID int64, now time.Time) (*models.RaceSchedule, error) {
	now = now.In(config.Timezone)
	raceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.Timezone)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	schedules, err := uow.RaceScheduleRepository().ListDay(ctx, guildID, raceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	var target *models.RaceSchedule
	for _, schedule := range schedules {
		if !schedule.LotteryDone && !schedule.RaceFinished {
			target = schedule
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("no undrawn race today: %w", ErrNotFound)
	}

	held, err := uow.RaceScheduleRepository().TryAdvisoryLock(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("race %d is being processed: %w", target.RaceNo, ErrInvalidTransition)
	}

	if !target.Locked {
		if err := s.lockEntries(ctx, uow, target); err != nil {
			return nil, err
		}
	}
	if _, err := s.runLottery(ctx, uow, target); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return target, nil
}

// lockEntries freezes the entry book. A concurrent pass that already locked
// the schedule surfaces as ErrInvalidTransition and counts as done.
func (s *raceDayService) lockEntries(ctx context.Context, uow UnitOfWork, schedule *models.RaceSchedule) error {
	err := uow.RaceScheduleRepository().Mark(ctx, schedule.ID, FlagLocked)
	if err != nil && !errors.Is(err, ErrInvalidTransition) {
		return fmt.Errorf("failed to lock schedule: %w", err)
	}
	schedule.Locked = true

	uow.EventBus().Publish(events.RaceLockedEvent{
		ScheduleID: schedule.ID,
		GuildID:    schedule.GuildID,
		RaceDate:   schedule.RaceDate,
		RaceNo:     schedule.RaceNo,
	})
	return nil
}

// runLottery re-validates every pending entry, refunds the ineligible,
// abandons the race when fewer than two pets remain, and otherwise draws up
// to max_entries runners with the race's seeded generator. An abandoned race
// is a terminal outcome and comes back as a RaceResult so the channel gets
// the cancellation notice.
func (s *raceDayService) runLottery(ctx context.Context, uow UnitOfWork, schedule *models.RaceSchedule) (*models.RaceResult, error) {
	pending, err := uow.RaceEntryRepository().ListByStatus(ctx, schedule.ID, models.EntryStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	// Eligibility is re-checked at draw time: a pet that raced in another
	// guild's lottery since entering is dropped here.
	var candidates []*models.RaceEntry
	for _, entry := range pending {
		pet, err := uow.PetRepository().GetByID(ctx, entry.PetID)
		if err != nil {
			return nil, fmt.Errorf("failed to get pet %d: %w", entry.PetID, err)
		}
		if pet == nil || checkEligibility(pet, entry.OwnerDiscordID) != nil {
			if err := s.rejectEntry(ctx, uow, schedule, entry); err != nil {
				return nil, err
			}
			continue
		}
		candidates = append(candidates, entry)
	}

	if len(candidates) < 2 {
		for _, entry := range candidates {
			if err := s.rejectEntry(ctx, uow, schedule, entry); err != nil {
				return nil, err
			}
		}
		if err := uow.RaceScheduleRepository().MarkAbandoned(ctx, schedule.ID); err != nil {
			return nil, fmt.Errorf("failed to abandon schedule: %w", err)
		}
		schedule.LotteryDone = true
		schedule.RaceFinished = true
		schedule.Abandoned = true

		uow.EventBus().Publish(events.LotteryDrawnEvent{
			ScheduleID:    schedule.ID,
			GuildID:       schedule.GuildID,
			RaceNo:        schedule.RaceNo,
			RejectedCount: len(pending),
			Abandoned:     true,
		})
		return &models.RaceResult{Schedule: schedule, Abandoned: true}, nil
	}

	rng := NewRaceRNG(schedule.RaceDate, schedule.ID, s.cfg.SeedSecret)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	limit := schedule.MaxEntries
	if limit > len(candidates) {
		limit = len(candidates)
	}
	selected, rejected := candidates[:limit], candidates[limit:]

	var selectedPets []int64
	for _, entry := range selected {
		if err := uow.RaceEntryRepository().UpdateStatus(ctx, entry.ID, models.EntryStatusSelected); err != nil {
			return nil, fmt.Errorf("failed to select entry %d: %w", entry.ID, err)
		}
		if err := uow.PetRepository().SetRacedToday(ctx, entry.PetID, true); err != nil {
			return nil, fmt.Errorf("failed to flag pet %d: %w", entry.PetID, err)
		}
		entry.Status = models.EntryStatusSelected
		selectedPets = append(selectedPets, entry.PetID)
	}
	for _, entry := range rejected {
		if err := s.rejectEntry(ctx, uow, schedule, entry); err != nil {
			return nil, err
		}
	}

	err = uow.RaceScheduleRepository().Mark(ctx, schedule.ID, FlagLotteryDone)
	if err != nil && !errors.Is(err, ErrInvalidTransition) {
		return nil, fmt.Errorf("failed to mark lottery done: %w", err)
	}
	schedule.LotteryDone = true

	uow.EventBus().Publish(events.LotteryDrawnEvent{
		ScheduleID:    schedule.ID,
		GuildID:       schedule.GuildID,
		RaceNo:        schedule.RaceNo,
		SelectedPets:  selectedPets,
		RejectedCount: len(pending) - len(selected),
		Abandoned:     false,
	})
	return nil, nil
}

// rejectEntry marks an entry rejected and refunds the entry fee exactly
func (s *raceDayService) rejectEntry(ctx context.Context, uow UnitOfWork, schedule *models.RaceSchedule, entry *models.RaceEntry) error {
	if err := uow.RaceEntryRepository().UpdateStatus(ctx, entry.ID, models.EntryStatusRejected); err != nil {
		return fmt.Errorf("failed to reject entry %d: %w", entry.ID, err)
	}
	entry.Status = models.EntryStatusRejected

	if !entry.Paid {
		return nil
	}
	return s.credit(ctx, uow, schedule.GuildID, entry.OwnerDiscordID, schedule.EntryFee, models.TransactionTypeRaceEntryRefund)
}

// credit adds amount to a user's balance with a matching history row
func (s *raceDayService) credit(ctx context.Context, uow UnitOfWork, guildID, discordID int64, amount int64, txType models.TransactionType) error {
	user, err := uow.UserRepository().GetByDiscordID(ctx, guildID, discordID)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", discordID, err)
	}
	if user == nil {
		log.WithFields(log.Fields{"guildId": guildID, "discordId": discordID}).Warn("Credit target user missing, skipping")
		return nil
	}

	if err := uow.UserRepository().AddBalance(ctx, guildID, discordID, amount); err != nil {
		return fmt.Errorf("failed to credit user %d: %w", discordID, err)
	}

	history := &models.BalanceHistory{
		DiscordID:       discordID,
		GuildID:         guildID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: txType,
	}
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record credit: %w", err)
	}
	return nil
}

// runRace simulates the race, persists the placings and settles the pool
func (s *raceDayService) runRace(ctx context.Context, uow UnitOfWork, schedule *models.RaceSchedule) (*models.RaceResult, error) {
	selected, err := uow.RaceEntryRepository().ListByStatus(ctx, schedule.ID, models.EntryStatusSelected)
	if err != nil {
		return nil, fmt.Errorf("failed to list runners: %w", err)
	}

	entriesByPet := make(map[int64]*models.RaceEntry, len(selected))
	runners := make([]*models.Pet, 0, len(selected))
	for _, entry := range selected {
		pet, err := uow.PetRepository().GetByID(ctx, entry.PetID)
		if err != nil {
			return nil, fmt.Errorf("failed to get pet %d: %w", entry.PetID, err)
		}
		if pet == nil {
			return nil, fmt.Errorf("pet %d: %w", entry.PetID, ErrNotFound)
		}
		entriesByPet[entry.PetID] = entry
		runners = append(runners, pet)
	}

	rng := NewRaceRNG(schedule.RaceDate, schedule.ID, s.cfg.SeedSecret)
	placings := SimulateRace(runners, schedule.Distance, rng)

	ranked := make([]*models.RaceEntry, 0, len(placings))
	for _, placing := range placings {
		entry := entriesByPet[placing.PetID]
		if err := uow.RaceEntryRepository().SetResult(ctx, entry.ID, placing.Rank, placing.Score); err != nil {
			return nil, fmt.Errorf("failed to set result for entry %d: %w", entry.ID, err)
		}
		rank, score := placing.Rank, placing.Score
		entry.Rank = &rank
		entry.Score = &score
		ranked = append(ranked, entry)
	}

	pool, err := uow.RaceBetRepository().GetRacePool(ctx, schedule.GuildID, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get race pool: %w", err)
	}
	bets, err := uow.RaceBetRepository().ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	winnerPetID := placings[0].PetID
	plan := ComputePayouts(bets, winnerPetID, pool.TotalPool, s.cfg.HouseRake)

	for _, c := range plan.Credits {
		if err := s.credit(ctx, uow, schedule.GuildID, c.Bet.UserDiscordID, c.Amount, c.TransactionType); err != nil {
			return nil, err
		}
	}

	err = uow.RaceScheduleRepository().Mark(ctx, schedule.ID, FlagRaceFinished)
	if err != nil && !errors.Is(err, ErrInvalidTransition) {
		return nil, fmt.Errorf("failed to mark race finished: %w", err)
	}
	schedule.RaceFinished = true

	uow.EventBus().Publish(events.RaceFinishedEvent{
		ScheduleID: schedule.ID,
		GuildID:    schedule.GuildID,
		RaceNo:     schedule.RaceNo,
		WinnerPet:  winnerPetID,
		TotalPool:  pool.TotalPool,
	})

	return &models.RaceResult{
		Schedule:  schedule,
		Ranked:    ranked,
		TotalPool: pool.TotalPool,
		NetPool:   plan.NetPool,
		HouseCut:  plan.HouseCut,
		Payouts:   plan.ByUser,
		Refunded:  plan.Refunded,
	}, nil
}
