package service

import (
	"testing"
	"time"

	"oasisbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDate(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
}

func testPet(id int64, speed, power, stamina int) *models.Pet {
	return &models.Pet{
		ID:      id,
		Stage:   models.PetStageAdult,
		Speed:   speed,
		Power:   power,
		Stamina: stamina,
	}
}

func TestNewRaceRNG_Deterministic(t *testing.T) {
	date := testDate(t)

	a := NewRaceRNG(date, 42, "secret")
	b := NewRaceRNG(date, 42, "secret")
	assert.Equal(t, a.Float64(), b.Float64())

	c := NewRaceRNG(date, 43, "secret")
	d := NewRaceRNG(date.AddDate(0, 0, 1), 42, "secret")
	first := NewRaceRNG(date, 42, "secret").Float64()
	assert.NotEqual(t, first, c.Float64())
	assert.NotEqual(t, first, d.Float64())
}

func TestSimulateRace_Deterministic(t *testing.T) {
	date := testDate(t)
	pets := []*models.Pet{
		testPet(1, 50, 40, 100),
		testPet(2, 45, 55, 100),
		testPet(3, 60, 30, 100),
	}

	first := SimulateRace(pets, 1500, NewRaceRNG(date, 7, "s"))
	second := SimulateRace(pets, 1500, NewRaceRNG(date, 7, "s"))

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].PetID, second[i].PetID)
		assert.Equal(t, first[i].Score, second[i].Score)
		assert.Equal(t, first[i].Rank, second[i].Rank)
	}
}

func TestSimulateRace_InputOrderIrrelevant(t *testing.T) {
	date := testDate(t)
	pets := []*models.Pet{
		testPet(1, 50, 40, 100),
		testPet(2, 45, 55, 100),
		testPet(3, 60, 30, 100),
	}
	reversed := []*models.Pet{pets[2], pets[1], pets[0]}

	first := SimulateRace(pets, 2000, NewRaceRNG(date, 9, "s"))
	second := SimulateRace(reversed, 2000, NewRaceRNG(date, 9, "s"))

	for i := range first {
		assert.Equal(t, first[i].PetID, second[i].PetID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestSimulateRace_RanksAreSequential(t *testing.T) {
	pets := []*models.Pet{
		testPet(1, 50, 40, 100),
		testPet(2, 45, 55, 100),
		testPet(3, 60, 30, 100),
		testPet(4, 10, 10, 100),
	}

	placings := SimulateRace(pets, 1000, NewRaceRNG(testDate(t), 1, "s"))

	require.Len(t, placings, 4)
	for i, p := range placings {
		assert.Equal(t, i+1, p.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, placings[i-1].Score, p.Score)
		}
	}
}

func TestSimulateRace_StaminaBreakPenalty(t *testing.T) {
	// At 2500m the stamina weight is 1.6, so the loss is 80. A pet with 80
	// or less stamina breaks and loses 40% of its score.
	strong := testPet(1, 50, 50, 200)
	weak := testPet(2, 50, 50, 80)

	// Zero noise variance is impossible, so compare across many seeds. The
	// weak pet has identical speed and power; it should never beat the
	// strong pet by more than the noise band allows.
	weakWins := 0
	for seed := int64(0); seed < 50; seed++ {
		placings := SimulateRace([]*models.Pet{strong, weak}, 2500, NewRaceRNG(testDate(t), seed, "s"))
		if placings[0].PetID == weak.ID {
			weakWins++
		}
	}
	assert.Zero(t, weakWins, "broken pet should never outrun an identical healthy one")
}

func TestWeightsFor_NearestDistance(t *testing.T) {
	assert.Equal(t, weightTable[0].weights, weightsFor(1000))
	assert.Equal(t, weightTable[0].weights, weightsFor(800))
	assert.Equal(t, weightTable[1].weights, weightsFor(1400))
	assert.Equal(t, weightTable[3].weights, weightsFor(3000))
}

func TestSimulateRace_DistanceChangesOutcome(t *testing.T) {
	// Sprinter has raw speed, stayer has stamina and power. Across the
	// weight table the sprinter should dominate 1000m scores and the
	// stayer 2500m scores before noise.
	sprinter := testPet(1, 90, 40, 60)
	stayer := testPet(2, 40, 70, 200)

	sprinterWins, stayerWins := 0, 0
	for seed := int64(0); seed < 50; seed++ {
		short := SimulateRace([]*models.Pet{sprinter, stayer}, 1000, NewRaceRNG(testDate(t), seed, "s"))
		long := SimulateRace([]*models.Pet{sprinter, stayer}, 2500, NewRaceRNG(testDate(t), seed+100, "s"))
		if short[0].PetID == sprinter.ID {
			sprinterWins++
		}
		if long[0].PetID == stayer.ID {
			stayerWins++
		}
	}

	assert.Greater(t, sprinterWins, 40)
	assert.Greater(t, stayerWins, 40)
}
