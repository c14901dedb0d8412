package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusNew        ContractStatus = "new"
	ContractStatusInProgress ContractStatus = "in_progress"
	ContractStatusTerminated ContractStatus = "terminated"
)

type Contract struct {
	ID           uuid.UUID      `json:"id"`
	Terms        string         `json:"terms"`
	Status       ContractStatus `json:"status"`
	ContractorID uuid.UUID      `json:"ContractorId"`
	ClientID     uuid.UUID      `json:"ClientId"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// HasParty reports whether the profile is the client or the contractor of the contract.
func (c Contract) HasParty(profileID uuid.UUID) bool {
	return c.ClientID == profileID || c.ContractorID == profileID
}
