package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

type ContractService struct {
	repo ports.ContractRepository
}

func NewContractService(repo ports.ContractRepository) *ContractService {
	return &ContractService{repo: repo}
}

func (s *ContractService) GetContract(ctx context.Context, callerID, contractID uuid.UUID) (*model.Contract, error) {
	contract, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !contract.HasParty(callerID) {
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

func (s *ContractService) ListContracts(ctx context.Context, callerID uuid.UUID) ([]model.Contract, error) {
	contracts, err := s.repo.ListContractsByProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	return contracts, nil
}
