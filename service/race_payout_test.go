package service

import (
	"testing"

	"oasisbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBet(userID, petID, amount int64) *models.RaceBet {
	return &models.RaceBet{UserDiscordID: userID, PetID: petID, Amount: amount}
}

func TestComputePayouts_SingleWinner(t *testing.T) {
	bets := []*models.RaceBet{
		testBet(1, 10, 10_000),
		testBet(2, 20, 30_000),
	}

	plan := ComputePayouts(bets, 10, 40_000, 0)

	require.Len(t, plan.Credits, 1)
	assert.Equal(t, int64(40_000), plan.Credits[0].Amount)
	assert.Equal(t, models.TransactionTypeRacePayout, plan.Credits[0].TransactionType)
	assert.Equal(t, int64(40_000), plan.ByUser[1])
	assert.Zero(t, plan.ByUser[2])
	assert.Zero(t, plan.HouseCut)
	assert.False(t, plan.Refunded)
}

func TestComputePayouts_ProRataSplit(t *testing.T) {
	bets := []*models.RaceBet{
		testBet(1, 10, 10_000),
		testBet(2, 10, 20_000),
		testBet(3, 20, 30_000),
	}

	plan := ComputePayouts(bets, 10, 60_000, 0)

	require.Len(t, plan.Credits, 2)
	assert.Equal(t, int64(20_000), plan.ByUser[1])
	assert.Equal(t, int64(40_000), plan.ByUser[2])
	assert.Zero(t, plan.HouseCut)
}

func TestComputePayouts_PoolConservation(t *testing.T) {
	// Credits plus house remainder must always equal floor(pool * (1-rake))
	bets := []*models.RaceBet{
		testBet(1, 10, 3_333),
		testBet(2, 10, 7_777),
		testBet(3, 20, 5_000),
		testBet(4, 30, 1_111),
	}
	var total int64
	for _, b := range bets {
		total += b.Amount
	}

	for _, rake := range []float64{0, 0.05, 0.1} {
		plan := ComputePayouts(bets, 10, total, rake)

		var credited int64
		for _, c := range plan.Credits {
			credited = credited + c.Amount
		}
		assert.Equal(t, plan.NetPool, credited+plan.HouseCut)
		assert.GreaterOrEqual(t, plan.HouseCut, int64(0))
	}
}

func TestComputePayouts_NoWinnerBackers_RefundsStakes(t *testing.T) {
	bets := []*models.RaceBet{
		testBet(1, 20, 10_000),
		testBet(2, 30, 5_000),
	}

	plan := ComputePayouts(bets, 10, 15_000, 0)

	assert.True(t, plan.Refunded)
	require.Len(t, plan.Credits, 2)
	assert.Equal(t, int64(10_000), plan.ByUser[1])
	assert.Equal(t, int64(5_000), plan.ByUser[2])
	for _, c := range plan.Credits {
		assert.Equal(t, models.TransactionTypeRaceBetRefund, c.TransactionType)
	}
	assert.Zero(t, plan.HouseCut)
}

func TestComputePayouts_NoWinnerBackers_RakeStaysWithHouse(t *testing.T) {
	// With a rake the refund is still the exact stake; the shortfall is
	// taken from the net pool and never from the bettors.
	bets := []*models.RaceBet{
		testBet(1, 20, 10_000),
	}

	plan := ComputePayouts(bets, 10, 10_000, 0.1)

	assert.True(t, plan.Refunded)
	assert.Equal(t, int64(10_000), plan.ByUser[1])
	assert.Equal(t, int64(9_000), plan.NetPool)
	assert.Equal(t, int64(-1_000), plan.HouseCut)
}

func TestComputePayouts_RakeRemainder(t *testing.T) {
	bets := []*models.RaceBet{
		testBet(1, 10, 100),
		testBet(2, 10, 200),
		testBet(3, 20, 33),
	}

	plan := ComputePayouts(bets, 10, 333, 0.1)

	// net = floor(333 * 0.9) = 299
	assert.Equal(t, int64(299), plan.NetPool)
	// 100/300*299 = 99 (floored), 200/300*299 = 199 (floored)
	assert.Equal(t, int64(99), plan.ByUser[1])
	assert.Equal(t, int64(199), plan.ByUser[2])
	assert.Equal(t, int64(1), plan.HouseCut)
}

func TestComputePayouts_LargePool_NoOverflow(t *testing.T) {
	// stake * net pool exceeds int64 here; the split must still be exact
	bets := []*models.RaceBet{
		testBet(1, 10, 5_000_000_000),
		testBet(2, 10, 5_000_000_000),
	}

	plan := ComputePayouts(bets, 10, 10_000_000_000, 0)

	require.Len(t, plan.Credits, 2)
	assert.Equal(t, int64(5_000_000_000), plan.ByUser[1])
	assert.Equal(t, int64(5_000_000_000), plan.ByUser[2])
	assert.Zero(t, plan.HouseCut)
}

func TestComputePayouts_EmptyPool(t *testing.T) {
	plan := ComputePayouts(nil, 10, 0, 0)
	assert.Empty(t, plan.Credits)
	assert.Zero(t, plan.NetPool)
	assert.Zero(t, plan.HouseCut)
	assert.False(t, plan.Refunded)
}
