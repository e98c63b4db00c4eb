package models

import (
	"time"
)

// EntryStatus represents the lifecycle state of a race entry
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusSelected EntryStatus = "selected"
	EntryStatusRejected EntryStatus = "rejected"
)

// RaceSchedule represents one scheduled race at a fixed local time on a given
// date in a given guild. The three flags only ever move forward:
// locked -> lottery_done -> race_finished.
type RaceSchedule struct {
	ID                int64     `db:"id"`
	GuildID           int64     `db:"guild_id"`
	RaceDate          time.Time `db:"race_date"`
	RaceNo            int       `db:"race_no"`
	PostTime          time.Time `db:"post_time"`
	Distance          int       `db:"distance"`
	EntryOpenMinutes  int       `db:"entry_open_minutes"`
	LockOffsetMinutes int       `db:"lock_offset_minutes"`
	MaxEntries        int       `db:"max_entries"`
	EntryFee          int64     `db:"entry_fee"`
	Locked            bool      `db:"locked"`
	LotteryDone       bool      `db:"lottery_done"`
	RaceFinished      bool      `db:"race_finished"`
	Abandoned         bool      `db:"abandoned"`
	CreatedAt         time.Time `db:"created_at"`
}

// EntryOpenAt returns the time entries start being accepted
func (s *RaceSchedule) EntryOpenAt() time.Time {
	return s.PostTime.Add(-time.Duration(s.EntryOpenMinutes) * time.Minute)
}

// LockAt returns the time entries freeze and the lottery runs
func (s *RaceSchedule) LockAt() time.Time {
	return s.PostTime.Add(-time.Duration(s.LockOffsetMinutes) * time.Minute)
}

// EntriesOpen checks whether new entries are accepted at the given instant
func (s *RaceSchedule) EntriesOpen(now time.Time) bool {
	if s.Locked || s.LotteryDone || s.RaceFinished {
		return false
	}
	return !now.Before(s.EntryOpenAt()) && now.Before(s.LockAt())
}

// BettingOpen checks whether bets are accepted at the given instant
func (s *RaceSchedule) BettingOpen(now time.Time) bool {
	return s.LotteryDone && !s.RaceFinished && now.Before(s.PostTime)
}

// DueForLock checks whether the schedule should transition to locked
func (s *RaceSchedule) DueForLock(now time.Time) bool {
	return !s.Locked && !now.Before(s.LockAt())
}

// DueForLottery checks whether the selection lottery should run
func (s *RaceSchedule) DueForLottery() bool {
	return s.Locked && !s.LotteryDone
}

// DueForStart checks whether simulation and payout should run
func (s *RaceSchedule) DueForStart(now time.Time) bool {
	return s.LotteryDone && !s.RaceFinished && !now.Before(s.PostTime)
}

// RaceEntry is a user's declaration that a specific pet will attempt to race.
// Rank and Score are set only once the owning race is finished.
type RaceEntry struct {
	ID             int64       `db:"id"`
	ScheduleID     int64       `db:"schedule_id"`
	GuildID        int64       `db:"guild_id"`
	RaceDate       time.Time   `db:"race_date"`
	PetID          int64       `db:"pet_id"`
	OwnerDiscordID int64       `db:"owner_discord_id"`
	Status         EntryStatus `db:"status"`
	Paid           bool        `db:"paid"`
	Rank           *int        `db:"rank"`
	Score          *float64    `db:"score"`
	CreatedAt      time.Time   `db:"created_at"`
}

// EntryBook groups a race's entries by status
type EntryBook struct {
	Pending  []*RaceEntry
	Selected []*RaceEntry
	Rejected []*RaceEntry
}
