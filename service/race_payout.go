package service

import (
	"math"
	"math/big"

	"oasisbot/models"
)

// BetCredit is one bettor credit produced by pool settlement
type BetCredit struct {
	Bet             *models.RaceBet
	Amount          int64
	TransactionType models.TransactionType
}

// PayoutPlan is the settlement of one race's pari-mutuel pool
type PayoutPlan struct {
	NetPool  int64
	HouseCut int64
	Credits  []*BetCredit
	// ByUser sums the credits per bettor discord ID
	ByUser map[int64]int64
	// Refunded is true when nobody backed the winner and stakes were
	// returned instead of paid out
	Refunded bool
}

// ComputePayouts settles the pool for a finished race. Winning bettors split
// floor(total_pool * (1 - rake)) pro-rata by stake on the winner; flooring
// remainders stay with the house. When no one backed the winner every bettor
// gets their exact stake back. Losing bets forfeit.
func ComputePayouts(bets []*models.RaceBet, winnerPetID int64, totalPool int64, rake float64) *PayoutPlan {
	plan := &PayoutPlan{ByUser: make(map[int64]int64)}

	if totalPool <= 0 || len(bets) == 0 {
		return plan
	}

	plan.NetPool = int64(math.Floor(float64(totalPool) * (1 - rake)))

	var winnerStake int64
	for _, bet := range bets {
		if bet.PetID == winnerPetID {
			winnerStake += bet.Amount
		}
	}

	if winnerStake == 0 {
		plan.Refunded = true
		var refunded int64
		for _, bet := range bets {
			plan.Credits = append(plan.Credits, &BetCredit{
				Bet:             bet,
				Amount:          bet.Amount,
				TransactionType: models.TransactionTypeRaceBetRefund,
			})
			plan.ByUser[bet.UserDiscordID] += bet.Amount
			refunded += bet.Amount
		}
		plan.HouseCut = plan.NetPool - refunded
		return plan
	}

	var credited int64
	for _, bet := range bets {
		if bet.PetID != winnerPetID {
			continue
		}
		amount := proRataShare(bet.Amount, plan.NetPool, winnerStake)
		plan.Credits = append(plan.Credits, &BetCredit{
			Bet:             bet,
			Amount:          amount,
			TransactionType: models.TransactionTypeRacePayout,
		})
		plan.ByUser[bet.UserDiscordID] += amount
		credited += amount
	}
	plan.HouseCut = plan.NetPool - credited

	return plan
}

// proRataShare computes floor(stake * pool / total). The intermediate product
// can exceed int64 for large pools, so it goes through big.Int.
func proRataShare(stake, pool, total int64) int64 {
	share := new(big.Int).Mul(big.NewInt(stake), big.NewInt(pool))
	share.Quo(share, big.NewInt(total))
	return share.Int64()
}
