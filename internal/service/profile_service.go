package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

type ProfileService struct {
	repo ports.ProfileRepository
}

func NewProfileService(repo ports.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	profile, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}
