package service

import (
	"context"
	"testing"

	"oasisbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testStartingBalance = int64(100_000)

func newMockUoW(t *testing.T) (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockBalanceHistoryRepository) {
	t.Helper()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockBalanceHistoryRepo, nil, nil, nil, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	return mockUoW, mockFactory, mockUserRepo, mockBalanceHistoryRepo
}

func TestUserService_GetOrCreateUser_ExistingUser(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, mockBalanceHistoryRepo := newMockUoW(t)
	service := NewUserService(mockFactory, testStartingBalance)

	existingUser := &models.User{
		DiscordID: 123456,
		GuildID:   777,
		Username:  "testuser",
		Balance:   50000,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByDiscordID", ctx, int64(777), int64(123456)).Return(existingUser, nil)

	user, err := service.GetOrCreateUser(ctx, 777, 123456, "testuser")

	assert.NoError(t, err)
	assert.Equal(t, existingUser, user)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertNotCalled(t, "Record")
}

func TestUserService_GetOrCreateUser_NewUser(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, mockBalanceHistoryRepo := newMockUoW(t)
	service := NewUserService(mockFactory, testStartingBalance)

	newUser := &models.User{
		DiscordID: 123456,
		GuildID:   777,
		Username:  "newuser",
		Balance:   testStartingBalance,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByDiscordID", ctx, int64(777), int64(123456)).Return(nil, nil)
	mockUserRepo.On("Create", ctx, int64(777), int64(123456), "newuser", testStartingBalance).Return(newUser, nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.DiscordID == 123456 &&
			h.GuildID == 777 &&
			h.BalanceBefore == 0 &&
			h.BalanceAfter == testStartingBalance &&
			h.ChangeAmount == testStartingBalance &&
			h.TransactionType == models.TransactionTypeInitial
	})).Return(nil)

	user, err := service.GetOrCreateUser(ctx, 777, 123456, "newuser")

	assert.NoError(t, err)
	assert.Equal(t, newUser, user)
	assert.Len(t, mockUoW.PublishedEvents(), 1)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertExpectations(t)
}

func TestUserService_TransferBetweenUsers_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, mockBalanceHistoryRepo := newMockUoW(t)
	service := NewUserService(mockFactory, testStartingBalance)

	sender := &models.User{
		DiscordID: 111,
		GuildID:   777,
		Username:  "sender",
		Balance:   500,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByDiscordID", ctx, int64(777), int64(111)).Return(sender, nil)

	err := service.TransferBetweenUsers(ctx, 777, 111, 222, 1000, "recipient")

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	mockUoW.AssertNotCalled(t, "Commit")
	mockUserRepo.AssertNotCalled(t, "DeductBalance")
	mockBalanceHistoryRepo.AssertNotCalled(t, "Record")
}

func TestUserService_TransferBetweenUsers_InvalidAmount(t *testing.T) {
	ctx := context.Background()

	_, mockFactory, _, _ := newMockUoW(t)
	service := NewUserService(mockFactory, testStartingBalance)

	err := service.TransferBetweenUsers(ctx, 777, 111, 222, 0, "recipient")
	assert.ErrorIs(t, err, ErrAmountInvalid)

	err = service.TransferBetweenUsers(ctx, 777, 111, 111, 100, "self")
	assert.Error(t, err)
}

func TestUserService_TransferBetweenUsers_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, mockBalanceHistoryRepo := newMockUoW(t)
	service := NewUserService(mockFactory, testStartingBalance)

	sender := &models.User{DiscordID: 111, GuildID: 777, Balance: 10000}
	recipient := &models.User{DiscordID: 222, GuildID: 777, Balance: 3000}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByDiscordID", ctx, int64(777), int64(111)).Return(sender, nil)
	mockUserRepo.On("GetByDiscordID", ctx, int64(777), int64(222)).Return(recipient, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(777), int64(111), int64(4000)).Return(nil)
	mockUserRepo.On("AddBalance", ctx, int64(777), int64(222), int64(4000)).Return(nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.DiscordID == 111 && h.ChangeAmount == -4000 &&
			h.TransactionType == models.TransactionTypeTransferOut
	})).Return(nil)
	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.DiscordID == 222 && h.ChangeAmount == 4000 &&
			h.TransactionType == models.TransactionTypeTransferIn
	})).Return(nil)

	err := service.TransferBetweenUsers(ctx, 777, 111, 222, 4000, "recipient")

	assert.NoError(t, err)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertExpectations(t)
}
