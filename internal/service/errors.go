package service

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientFunds    = errors.New("insufficient funds to pay for this job")
	ErrDepositLimitExceeded = errors.New("deposit exceeds 25% of outstanding jobs total, split it into several deposits")
	ErrAlreadyPaid          = errors.New("job is already paid")
	ErrTransactionFailed    = errors.New("transaction failed")
)
