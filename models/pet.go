package models

import (
	"time"
)

// PetStage represents the growth stage of a pet
type PetStage string

const (
	PetStageEgg   PetStage = "egg"
	PetStageAdult PetStage = "adult"
)

// Pet represents a user's virtual pet. The race engine reads its stats and
// mutates only RacedToday; everything else belongs to the raising simulation.
type Pet struct {
	ID             int64     `db:"id"`
	GuildID        int64     `db:"guild_id"`
	OwnerDiscordID int64     `db:"owner_discord_id"`
	Name           string    `db:"name"`
	Stage          PetStage  `db:"stage"`
	AdultKey       string    `db:"adult_key"`
	Speed          int       `db:"speed"`
	Power          int       `db:"power"`
	Stamina        int       `db:"stamina"`
	Condition      int       `db:"condition"`
	RacedToday     bool      `db:"raced_today"`
	RaceCandidate  bool      `db:"race_candidate"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// IsAdult checks whether the pet has hatched into its adult form
func (p *Pet) IsAdult() bool {
	return p.Stage == PetStageAdult
}
