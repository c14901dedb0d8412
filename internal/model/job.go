package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Job struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Paid        *bool           `json:"paid"` // nil until paid, never false
	PaymentDate *time.Time      `json:"paymentDate"`
	ContractID  uuid.UUID       `json:"ContractId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Contract    *Contract       `json:"Contract,omitempty"`
}

func (j Job) IsPaid() bool {
	return j.Paid != nil && *j.Paid
}

type PaymentResult struct {
	Client     Profile `json:"client"`
	Contractor Profile `json:"contractor"`
	Job        Job     `json:"job"`
}
