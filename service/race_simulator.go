package service

import (
	"math/rand"
	"sort"

	"oasisbot/models"
)

// distanceWeights are the stat weights for one tabulated course distance
type distanceWeights struct {
	speed   float64
	power   float64
	stamina float64
}

var weightTable = []struct {
	distance int
	weights  distanceWeights
}{
	{1000, distanceWeights{speed: 1.4, power: 0.8, stamina: 0.5}},
	{1500, distanceWeights{speed: 1.2, power: 1.2, stamina: 0.8}},
	{2000, distanceWeights{speed: 0.9, power: 1.3, stamina: 1.3}},
	{2500, distanceWeights{speed: 0.6, power: 1.0, stamina: 1.6}},
}

const (
	staminaLossBase     = 50.0
	staminaBreakPenalty = 0.6
)

// weightsFor picks the weights of the nearest tabulated distance.
// Intermediate distances are not interpolated.
func weightsFor(distance int) distanceWeights {
	best := weightTable[0]
	bestDiff := abs(distance - best.distance)
	for _, row := range weightTable[1:] {
		if diff := abs(distance - row.distance); diff < bestDiff {
			best = row
			bestDiff = diff
		}
	}
	return best.weights
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// RacePlacing is one pet's simulated outcome
type RacePlacing struct {
	PetID int64
	Score float64
	Rank  int
}

// SimulateRace computes the ranked result for a set of runners. It is pure
// and deterministic given the generator: noise factors are drawn in pet_id
// ascending order so a re-run with the same seed reproduces the sequence.
func SimulateRace(pets []*models.Pet, distance int, rng *rand.Rand) []*RacePlacing {
	w := weightsFor(distance)

	runners := make([]*models.Pet, len(pets))
	copy(runners, pets)
	sort.Slice(runners, func(i, j int) bool { return runners[i].ID < runners[j].ID })

	placings := make([]*RacePlacing, 0, len(runners))
	for _, pet := range runners {
		score := float64(pet.Speed)*w.speed + float64(pet.Power)*w.power

		staminaLoss := staminaLossBase * w.stamina
		if float64(pet.Stamina)-staminaLoss <= 0 {
			score *= staminaBreakPenalty
		}

		noise := 0.95 + rng.Float64()*0.1
		score *= noise

		placings = append(placings, &RacePlacing{PetID: pet.ID, Score: score})
	}

	sort.Slice(placings, func(i, j int) bool {
		if placings[i].Score != placings[j].Score {
			return placings[i].Score > placings[j].Score
		}
		return placings[i].PetID < placings[j].PetID
	})

	for i, p := range placings {
		p.Rank = i + 1
	}

	return placings
}
