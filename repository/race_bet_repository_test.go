package repository

import (
	"context"
	"testing"

	"oasisbot/models"
	"oasisbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeBet(t *testing.T, repo *RaceBetRepository, s *models.RaceSchedule, userID, petID, amount int64) {
	t.Helper()
	ctx := context.Background()

	bet := &models.RaceBet{
		GuildID:       s.GuildID,
		RaceDate:      s.RaceDate,
		ScheduleID:    s.ID,
		UserDiscordID: userID,
		PetID:         petID,
		Amount:        amount,
	}
	require.NoError(t, repo.Create(ctx, bet))
	require.NoError(t, repo.AddToPools(ctx, s.GuildID, s.ID, petID, amount))
}

func TestRaceBetRepository_PoolRollUps(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	scheduleRepo := NewRaceScheduleRepository(testDB.DB)
	repo := NewRaceBetRepository(testDB.DB)
	ctx := context.Background()

	s := seedSchedule(t, scheduleRepo, 777, 1)

	t.Run("unbet race reads a zero-valued pool", func(t *testing.T) {
		pool, err := repo.GetRacePool(ctx, 777, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(777), pool.GuildID)
		assert.Zero(t, pool.TotalPool)
	})

	t.Run("stakes accumulate in both roll-ups", func(t *testing.T) {
		placeBet(t, repo, s, 111, 5, 10_000)
		placeBet(t, repo, s, 222, 5, 5_000)
		placeBet(t, repo, s, 333, 6, 20_000)

		pool, err := repo.GetRacePool(ctx, 777, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(35_000), pool.TotalPool)

		petPools, err := repo.ListPetPools(ctx, 777, s.ID)
		require.NoError(t, err)
		require.Len(t, petPools, 2)
		assert.Equal(t, int64(5), petPools[0].PetID)
		assert.Equal(t, int64(15_000), petPools[0].TotalAmount)
		assert.Equal(t, int64(6), petPools[1].PetID)
		assert.Equal(t, int64(20_000), petPools[1].TotalAmount)

		bets, err := repo.ListBySchedule(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, bets, 3)
	})
}

func TestRaceBetRepository_LockPool(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	scheduleRepo := NewRaceScheduleRepository(testDB.DB)
	repo := NewRaceBetRepository(testDB.DB)
	ctx := context.Background()

	s := seedSchedule(t, scheduleRepo, 888, 1)

	t.Run("creates the pool row on first use", func(t *testing.T) {
		tx, err := testDB.DB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		txRepo := newRaceBetRepositoryWithTx(tx)
		require.NoError(t, txRepo.LockPool(ctx, 888, s.ID))
		require.NoError(t, txRepo.AddToPools(ctx, 888, s.ID, 5, 1_000))
		require.NoError(t, tx.Commit(ctx))

		pool, err := repo.GetRacePool(ctx, 888, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000), pool.TotalPool)
	})

	t.Run("relocking an existing pool keeps the total", func(t *testing.T) {
		tx, err := testDB.DB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		txRepo := newRaceBetRepositoryWithTx(tx)
		require.NoError(t, txRepo.LockPool(ctx, 888, s.ID))
		require.NoError(t, txRepo.AddToPools(ctx, 888, s.ID, 5, 2_000))
		require.NoError(t, tx.Commit(ctx))

		pool, err := repo.GetRacePool(ctx, 888, s.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3_000), pool.TotalPool)
	})
}
