package models

import (
	"time"
)

// RaceBet represents a pari-mutuel stake on a selected pet. Bets are
// append-only; the two pool roll-ups are kept in the same transaction.
type RaceBet struct {
	ID            int64     `db:"id"`
	GuildID       int64     `db:"guild_id"`
	RaceDate      time.Time `db:"race_date"`
	ScheduleID    int64     `db:"schedule_id"`
	UserDiscordID int64     `db:"user_discord_id"`
	PetID         int64     `db:"pet_id"`
	Amount        int64     `db:"amount"`
	CreatedAt     time.Time `db:"created_at"`
}

// RacePool is the per-race roll-up: total_pool = sum of all bet amounts
type RacePool struct {
	GuildID    int64 `db:"guild_id"`
	ScheduleID int64 `db:"schedule_id"`
	TotalPool  int64 `db:"total_pool"`
}

// PetPool is the per-(race, pet) roll-up of bet amounts on that pet
type PetPool struct {
	GuildID     int64 `db:"guild_id"`
	ScheduleID  int64 `db:"schedule_id"`
	PetID       int64 `db:"pet_id"`
	TotalAmount int64 `db:"total_amount"`
}

// PetOdds is the informational odds quote for one selected pet.
// Odds is nil when nothing has been staked on the pet yet.
type PetOdds struct {
	PetID int64
	Stake int64
	Odds  *float64
}

// RaceResult is the settled outcome of a race, emitted for the result embed
// and the read API.
type RaceResult struct {
	Schedule  *RaceSchedule
	Ranked    []*RaceEntry
	TotalPool int64
	NetPool   int64
	HouseCut  int64
	// Payouts maps bettor discord ID to the total amount credited
	Payouts  map[int64]int64
	Refunded bool
	// Abandoned is true when the race was called off at lottery time for
	// lack of runners; Ranked and the pool fields are empty in that case
	Abandoned bool
}
