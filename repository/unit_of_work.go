package repository

import (
	"context"
	"fmt"

	"oasisbot/database"
	"oasisbot/events"
	"oasisbot/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	userRepo           service.UserRepository
	balanceHistoryRepo service.BalanceHistoryRepository
	petRepo            service.PetRepository
	raceScheduleRepo   service.RaceScheduleRepository
	raceEntryRepo      service.RaceEntryRepository
	raceBetRepo        service.RaceBetRepository
	guildSettingsRepo  service.GuildSettingsRepository
	dailyResetRepo     service.DailyResetRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.petRepo = newPetRepositoryWithTx(tx)
	u.raceScheduleRepo = newRaceScheduleRepositoryWithTx(tx)
	u.raceEntryRepo = newRaceEntryRepositoryWithTx(tx)
	u.raceBetRepo = newRaceBetRepositoryWithTx(tx)
	u.guildSettingsRepo = newGuildSettingsRepositoryWithTx(tx)
	u.dailyResetRepo = newDailyResetRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

func (u *unitOfWork) PetRepository() service.PetRepository {
	if u.petRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.petRepo
}

func (u *unitOfWork) RaceScheduleRepository() service.RaceScheduleRepository {
	if u.raceScheduleRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.raceScheduleRepo
}

func (u *unitOfWork) RaceEntryRepository() service.RaceEntryRepository {
	if u.raceEntryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.raceEntryRepo
}

func (u *unitOfWork) RaceBetRepository() service.RaceBetRepository {
	if u.raceBetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.raceBetRepo
}

func (u *unitOfWork) GuildSettingsRepository() service.GuildSettingsRepository {
	if u.guildSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildSettingsRepo
}

func (u *unitOfWork) DailyResetRepository() service.DailyResetRepository {
	if u.dailyResetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.dailyResetRepo
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
