package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func windowSchedule() *RaceSchedule {
	return &RaceSchedule{
		ID:                1,
		PostTime:          time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		EntryOpenMinutes:  60,
		LockOffsetMinutes: 5,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 1, 10, hour, minute, 0, 0, time.UTC)
}

func TestRaceSchedule_EntriesOpen(t *testing.T) {
	s := windowSchedule()

	assert.False(t, s.EntriesOpen(at(7, 59)), "before window opens")
	assert.True(t, s.EntriesOpen(at(8, 0)), "open boundary is inclusive")
	assert.True(t, s.EntriesOpen(at(8, 54)))
	assert.False(t, s.EntriesOpen(at(8, 55)), "lock boundary is exclusive")

	locked := windowSchedule()
	locked.Locked = true
	assert.False(t, locked.EntriesOpen(at(8, 30)))
}

func TestRaceSchedule_BettingOpen(t *testing.T) {
	s := windowSchedule()
	assert.False(t, s.BettingOpen(at(8, 56)), "lottery not drawn yet")

	s.Locked = true
	s.LotteryDone = true
	assert.True(t, s.BettingOpen(at(8, 56)))
	assert.False(t, s.BettingOpen(at(9, 0)), "post time closes betting")

	s.RaceFinished = true
	assert.False(t, s.BettingOpen(at(8, 56)))
}

func TestRaceSchedule_DueTransitions(t *testing.T) {
	s := windowSchedule()

	assert.False(t, s.DueForLock(at(8, 54)))
	assert.True(t, s.DueForLock(at(8, 55)))
	assert.False(t, s.DueForLottery())
	assert.False(t, s.DueForStart(at(9, 0)))

	s.Locked = true
	assert.False(t, s.DueForLock(at(9, 0)), "already locked")
	assert.True(t, s.DueForLottery())

	s.LotteryDone = true
	assert.False(t, s.DueForLottery())
	assert.False(t, s.DueForStart(at(8, 59)))
	assert.True(t, s.DueForStart(at(9, 0)))

	s.RaceFinished = true
	assert.False(t, s.DueForStart(at(9, 0)))
}
