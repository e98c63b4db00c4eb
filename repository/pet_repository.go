package repository

import (
	"context"
	"fmt"

	"oasisbot/database"
	"oasisbot/models"

	"github.com/jackc/pgx/v5"
)

const petColumns = `
	id, guild_id, owner_discord_id, name, stage, adult_key,
	speed, power, stamina, condition, raced_today, race_candidate,
	created_at, updated_at`

// PetRepository implements the service.PetRepository interface
type PetRepository struct {
	q queryable
}

// NewPetRepository creates a new pet repository
func NewPetRepository(db *database.DB) *PetRepository {
	return &PetRepository{q: db.Pool}
}

// newPetRepositoryWithTx creates a new pet repository with a transaction
func newPetRepositoryWithTx(tx queryable) *PetRepository {
	return &PetRepository{q: tx}
}

func scanPet(row pgx.Row) (*models.Pet, error) {
	var pet models.Pet
	err := row.Scan(
		&pet.ID,
		&pet.GuildID,
		&pet.OwnerDiscordID,
		&pet.Name,
		&pet.Stage,
		&pet.AdultKey,
		&pet.Speed,
		&pet.Power,
		&pet.Stamina,
		&pet.Condition,
		&pet.RacedToday,
		&pet.RaceCandidate,
		&pet.CreatedAt,
		&pet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

// GetByID retrieves a pet by its ID
func (r *PetRepository) GetByID(ctx context.Context, id int64) (*models.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE id = $1`

	pet, err := scanPet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pet %d: %w", id, err)
	}

	return pet, nil
}

// ListByOwner returns all pets owned by a user in a guild
func (r *PetRepository) ListByOwner(ctx context.Context, guildID, ownerDiscordID int64) ([]*models.Pet, error) {
	query := `
		SELECT ` + petColumns + `
		FROM pets
		WHERE guild_id = $1 AND owner_discord_id = $2
		ORDER BY id
	`
	return r.list(ctx, query, guildID, ownerDiscordID)
}

// ListByGuild returns all pets in a guild
func (r *PetRepository) ListByGuild(ctx context.Context, guildID int64) ([]*models.Pet, error) {
	query := `
		SELECT ` + petColumns + `
		FROM pets
		WHERE guild_id = $1
		ORDER BY id
	`
	return r.list(ctx, query, guildID)
}

func (r *PetRepository) list(ctx context.Context, query string, args ...any) ([]*models.Pet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	var pets []*models.Pet
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, pet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pets: %w", err)
	}

	return pets, nil
}

// SetRacedToday flips the daily race flag for one pet
func (r *PetRepository) SetRacedToday(ctx context.Context, petID int64, racedToday bool) error {
	query := `
		UPDATE pets
		SET raced_today = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, racedToday, petID)
	if err != nil {
		return fmt.Errorf("failed to set raced_today for pet %d: %w", petID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pet %d not found", petID)
	}

	return nil
}

// ResetRacedToday clears the daily race flag for every pet
func (r *PetRepository) ResetRacedToday(ctx context.Context) (int64, error) {
	result, err := r.q.Exec(ctx, `UPDATE pets SET raced_today = FALSE WHERE raced_today`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset raced_today: %w", err)
	}

	return result.RowsAffected(), nil
}
