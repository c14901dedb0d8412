package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/marketplace-payments/internal/model"
)

const profileColumns = `id, first_name, last_name, profession, balance, type, created_at, updated_at`

const contractColumns = `id, terms, status, contractor_id, client_id, created_at, updated_at`

const jobWithContractColumns = `
	j.id,
	j.description,
	j.price,
	j.paid,
	j.payment_date,
	j.contract_id,
	j.created_at,
	j.updated_at,
	c.terms AS contract_terms,
	c.status AS contract_status,
	c.contractor_id AS contract_contractor_id,
	c.client_id AS contract_client_id,
	c.created_at AS contract_created_at,
	c.updated_at AS contract_updated_at`

type profileRow struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Profession string
	Balance    decimal.Decimal
	Type       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r profileRow) toModel() model.Profile {
	return model.Profile{
		ID:         r.ID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Profession: r.Profession,
		Balance:    r.Balance,
		Type:       model.ProfileType(r.Type),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type contractRow struct {
	ID           uuid.UUID
	Terms        string
	Status       string
	ContractorID uuid.UUID
	ClientID     uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r contractRow) toModel() model.Contract {
	return model.Contract{
		ID:           r.ID,
		Terms:        r.Terms,
		Status:       model.ContractStatus(r.Status),
		ContractorID: r.ContractorID,
		ClientID:     r.ClientID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type jobRow struct {
	ID                   uuid.UUID
	Description          string
	Price                decimal.Decimal
	Paid                 *bool
	PaymentDate          *time.Time
	ContractID           uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ContractTerms        string
	ContractStatus       string
	ContractContractorID uuid.UUID
	ContractClientID     uuid.UUID
	ContractCreatedAt    time.Time
	ContractUpdatedAt    time.Time
}

func (r jobRow) toModel() model.Job {
	return model.Job{
		ID:          r.ID,
		Description: r.Description,
		Price:       r.Price,
		Paid:        r.Paid,
		PaymentDate: r.PaymentDate,
		ContractID:  r.ContractID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Contract: &model.Contract{
			ID:           r.ContractID,
			Terms:        r.ContractTerms,
			Status:       model.ContractStatus(r.ContractStatus),
			ContractorID: r.ContractContractorID,
			ClientID:     r.ContractClientID,
			CreatedAt:    r.ContractCreatedAt,
			UpdatedAt:    r.ContractUpdatedAt,
		},
	}
}
