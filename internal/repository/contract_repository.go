package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var row contractRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	contract := row.toModel()
	return &contract, nil
}

func (r *ContractRepository) ListContractsByProfile(ctx context.Context, profileID uuid.UUID) ([]model.Contract, error) {
	var rows []contractRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE contractor_id = ? OR client_id = ?
		ORDER BY created_at ASC, id ASC
	`, profileID, profileID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	contracts := make([]model.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.toModel())
	}
	return contracts, nil
}
