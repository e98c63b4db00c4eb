package service

import (
	"context"
	"fmt"

	"oasisbot/events"
	"oasisbot/models"
)

type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// GetOrCreateUser retrieves an existing user or creates a new one with the
// configured starting balance
func (s *userService) GetOrCreateUser(ctx context.Context, guildID, discordID int64, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, guildID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		user, err = uow.UserRepository().Create(ctx, guildID, discordID, username, s.startingBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		history := &models.BalanceHistory{
			DiscordID:       discordID,
			GuildID:         guildID,
			BalanceBefore:   0,
			BalanceAfter:    s.startingBalance,
			ChangeAmount:    s.startingBalance,
			TransactionType: models.TransactionTypeInitial,
		}
		if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
			return nil, fmt.Errorf("failed to record initial balance: %w", err)
		}

		uow.EventBus().Publish(events.UserCreatedEvent{
			DiscordID:      discordID,
			GuildID:        guildID,
			Username:       username,
			InitialBalance: s.startingBalance,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// TransferBetweenUsers transfers amount from sender to recipient
func (s *userService) TransferBetweenUsers(ctx context.Context, guildID, fromDiscordID, toDiscordID int64, amount int64, toUsername string) error {
	if amount <= 0 {
		return ErrAmountInvalid
	}
	if fromDiscordID == toDiscordID {
		return fmt.Errorf("cannot transfer to yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sender, err := uow.UserRepository().GetByDiscordID(ctx, guildID, fromDiscordID)
	if err != nil {
		return fmt.Errorf("failed to get sender: %w", err)
	}
	if sender == nil {
		return fmt.Errorf("sender: %w", ErrNotFound)
	}
	if sender.Balance < amount {
		return fmt.Errorf("have %d, need %d: %w", sender.Balance, amount, ErrInsufficientFunds)
	}

	recipient, err := uow.UserRepository().GetByDiscordID(ctx, guildID, toDiscordID)
	if err != nil {
		return fmt.Errorf("failed to get recipient: %w", err)
	}
	if recipient == nil {
		recipient, err = uow.UserRepository().Create(ctx, guildID, toDiscordID, toUsername, s.startingBalance)
		if err != nil {
			return fmt.Errorf("failed to create recipient: %w", err)
		}
	}

	if err := uow.UserRepository().DeductBalance(ctx, guildID, fromDiscordID, amount); err != nil {
		return err
	}
	if err := uow.UserRepository().AddBalance(ctx, guildID, toDiscordID, amount); err != nil {
		return err
	}

	outHistory := &models.BalanceHistory{
		DiscordID:       fromDiscordID,
		GuildID:         guildID,
		BalanceBefore:   sender.Balance,
		BalanceAfter:    sender.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeTransferOut,
	}
	if err := uow.BalanceHistoryRepository().Record(ctx, outHistory); err != nil {
		return fmt.Errorf("failed to record sender history: %w", err)
	}

	inHistory := &models.BalanceHistory{
		DiscordID:       toDiscordID,
		GuildID:         guildID,
		BalanceBefore:   recipient.Balance,
		BalanceAfter:    recipient.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeTransferIn,
	}
	if err := uow.BalanceHistoryRepository().Record(ctx, inHistory); err != nil {
		return fmt.Errorf("failed to record recipient history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          fromDiscordID,
		GuildID:         guildID,
		OldBalance:      sender.Balance,
		NewBalance:      sender.Balance - amount,
		TransactionType: models.TransactionTypeTransferOut,
		ChangeAmount:    -amount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
