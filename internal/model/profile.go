package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProfileType string

const (
	ProfileTypeClient     ProfileType = "client"
	ProfileTypeContractor ProfileType = "contractor"
)

type Profile struct {
	ID         uuid.UUID       `json:"id"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Profession string          `json:"profession"`
	Balance    decimal.Decimal `json:"balance"`
	Type       ProfileType     `json:"type"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (p Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Principal is the caller resolved by the auth middleware.
type Principal struct {
	ProfileID uuid.UUID
	Profile   Profile
}

func (p Principal) IsClient() bool {
	return p.Profile.Type == ProfileTypeClient
}

func (p Principal) IsContractor() bool {
	return p.Profile.Type == ProfileTypeContractor
}
