package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/metrics"
	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

var depositCapDivisor = decimal.NewFromInt(4)

// PaymentService moves money between profiles. Every mutation runs inside a
// single transaction, so a rejected or failed operation leaves no trace.
type PaymentService struct {
	tx  ports.Transactor
	log zerolog.Logger
	now func() time.Time
}

func NewPaymentService(tx ports.Transactor, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		tx:  tx,
		log: log,
		now: time.Now,
	}
}

// PayJob transfers the job price from the contract's client to its contractor
// and marks the job paid. Only the client of the contract may pay.
func (s *PaymentService) PayJob(ctx context.Context, callerID, jobID uuid.UUID) (*model.PaymentResult, error) {
	var result model.PaymentResult

	err := s.tx.WithinTransaction(ctx, func(ledger ports.Ledger) error {
		job, err := ledger.LockJob(ctx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if job.Contract == nil {
			return fmt.Errorf("job %s loaded without contract", job.ID)
		}
		contract := job.Contract
		if contract.ClientID != callerID {
			return ErrPermissionDenied
		}
		if job.IsPaid() {
			return ErrAlreadyPaid
		}

		parties, err := ledger.LockProfiles(ctx, contract.ClientID, contract.ContractorID)
		if err != nil {
			return err
		}
		client, okClient := parties[contract.ClientID]
		contractor, okContractor := parties[contract.ContractorID]
		if !okClient || !okContractor {
			return fmt.Errorf("%w: contract %s references a missing profile", ErrNotFound, contract.ID)
		}

		if client.Balance.LessThan(job.Price) {
			return ErrInsufficientFunds
		}

		paidAt := s.now().UTC()
		changed, err := ledger.MarkJobPaid(ctx, job.ID, paidAt)
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyPaid
		}

		clientBalance, err := ledger.AdjustBalance(ctx, client.ID, job.Price.Neg())
		if err != nil {
			return err
		}
		contractorBalance, err := ledger.AdjustBalance(ctx, contractor.ID, job.Price)
		if err != nil {
			return err
		}

		paid := true
		job.Paid = &paid
		job.PaymentDate = &paidAt
		job.UpdatedAt = paidAt
		client.Balance = clientBalance
		contractor.Balance = contractorBalance

		result = model.PaymentResult{
			Client:     *client,
			Contractor: *contractor,
			Job:        *job,
		}
		return nil
	})

	metrics.RecordPayment(outcomeOf(err))
	if err != nil {
		return nil, s.settle("pay job", err, jobID)
	}
	return &result, nil
}

// Deposit credits the caller's balance. A single deposit may not exceed a
// quarter of the caller's outstanding total: the price sum of unpaid jobs in
// in-progress contracts where the caller is the client.
func (s *PaymentService) Deposit(ctx context.Context, callerID uuid.UUID, amount decimal.Decimal) (*model.Profile, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amountToDeposit must be positive", ErrInvalidInput)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return nil, fmt.Errorf("%w: amountToDeposit supports at most 2 decimal places", ErrInvalidInput)
	}

	var profile model.Profile

	err := s.tx.WithinTransaction(ctx, func(ledger ports.Ledger) error {
		profiles, err := ledger.LockProfiles(ctx, callerID)
		if err != nil {
			return err
		}
		client, ok := profiles[callerID]
		if !ok {
			return ErrNotFound
		}

		outstanding, err := ledger.OutstandingTotal(ctx, callerID)
		if err != nil {
			return err
		}
		// amount > outstanding/4 without dividing
		if amount.Mul(depositCapDivisor).GreaterThan(outstanding) {
			return fmt.Errorf("%w (limit %s)", ErrDepositLimitExceeded, outstanding.Div(depositCapDivisor).String())
		}

		balance, err := ledger.AdjustBalance(ctx, callerID, amount)
		if err != nil {
			return err
		}
		client.Balance = balance
		client.UpdatedAt = s.now().UTC()
		profile = *client
		return nil
	})

	metrics.RecordDeposit(outcomeOf(err))
	if err != nil {
		return nil, s.settle("deposit", err, callerID)
	}
	return &profile, nil
}

// settle passes business rejections through and turns anything else into
// ErrTransactionFailed after logging it.
func (s *PaymentService) settle(op string, err error, subject uuid.UUID) error {
	if isRejection(err) {
		return err
	}
	s.log.Error().Err(err).Str("operation", op).Str("subject_id", subject.String()).Msg("transaction rolled back")
	return fmt.Errorf("%w: %s", ErrTransactionFailed, op)
}

func isRejection(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrPermissionDenied,
		ErrInvalidInput,
		ErrInsufficientFunds,
		ErrDepositLimitExceeded,
		ErrAlreadyPaid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrDepositLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	default:
		return "failed"
	}
}
