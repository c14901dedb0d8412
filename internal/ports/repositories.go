package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/marketplace-payments/internal/model"
)

// Adapters report missing records with gorm.ErrRecordNotFound.

type ProfileRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

type ContractRepository interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	ListContractsByProfile(ctx context.Context, profileID uuid.UUID) ([]model.Contract, error)
}

type JobRepository interface {
	ListUnpaidJobs(ctx context.Context, profileID uuid.UUID) ([]model.Job, error)
}

type ReportRepository interface {
	BestProfession(ctx context.Context, from, to time.Time, metric model.ProfessionMetric) (*model.ProfessionEarnings, error)
	BestClients(ctx context.Context, from, to time.Time, limit int) ([]model.ClientSpending, error)
}

// Ledger is bound to a single open transaction.
type Ledger interface {
	// LockJob returns the job with its contract and holds a row lock on the job.
	LockJob(ctx context.Context, jobID uuid.UUID) (*model.Job, error)
	// LockProfiles locks the profiles in id order and returns them keyed by id.
	LockProfiles(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Profile, error)
	OutstandingTotal(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, profileID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	// MarkJobPaid sets paid only while it is still null; false means no row changed.
	MarkJobPaid(ctx context.Context, jobID uuid.UUID, paidAt time.Time) (bool, error)
}

type Transactor interface {
	// WithinTransaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(ledger Ledger) error) error
}
