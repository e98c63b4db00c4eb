package service

import (
	"context"
	"fmt"

	"oasisbot/models"
)

type petService struct {
	uowFactory UnitOfWorkFactory
}

// NewPetService creates a new pet service
func NewPetService(uowFactory UnitOfWorkFactory) PetService {
	return &petService{uowFactory: uowFactory}
}

// GetPet retrieves a pet by ID
func (s *petService) GetPet(ctx context.Context, petID int64) (*models.Pet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pet, err := uow.PetRepository().GetByID(ctx, petID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	if pet == nil {
		return nil, fmt.Errorf("pet %d: %w", petID, ErrNotFound)
	}

	return pet, nil
}

// ListUserPets returns a user's pets in a guild
func (s *petService) ListUserPets(ctx context.Context, guildID, ownerDiscordID int64) ([]*models.Pet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pets, err := uow.PetRepository().ListByOwner(ctx, guildID, ownerDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}

	return pets, nil
}
