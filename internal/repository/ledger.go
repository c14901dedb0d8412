package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

// Store opens transactions and hands out ledgers bound to them.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ledger ports.Ledger) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledger{tx: tx})
	})
}

type ledger struct {
	tx *gorm.DB
}

func (l *ledger) LockJob(ctx context.Context, jobID uuid.UUID) (*model.Job, error) {
	var row jobRow
	if err := l.tx.WithContext(ctx).Raw(`
		SELECT `+jobWithContractColumns+`
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.id = ?
		FOR UPDATE OF j
	`, jobID).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	job := row.toModel()
	return &job, nil
}

func (l *ledger) LockProfiles(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Profile, error) {
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return map[uuid.UUID]*model.Profile{}, nil
	}

	var rows []profileRow
	if err := l.tx.WithContext(ctx).Raw(`
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id IN ?
		ORDER BY id ASC
		FOR UPDATE
	`, ids).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]*model.Profile, len(rows))
	for _, row := range rows {
		profile := row.toModel()
		result[profile.ID] = &profile
	}
	return result, nil
}

func (l *ledger) OutstandingTotal(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := l.tx.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(j.price), 0) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid IS NULL
			AND c.status = 'in_progress'
			AND c.client_id = ?
	`, clientID).Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (l *ledger) AdjustBalance(ctx context.Context, profileID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var rows []struct {
		Balance decimal.Decimal
	}
	if err := l.tx.WithContext(ctx).Raw(`
		UPDATE profiles
		SET balance = balance + ?, updated_at = NOW()
		WHERE id = ?
		RETURNING balance
	`, delta, profileID).Scan(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	if len(rows) == 0 {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	return rows[0].Balance, nil
}

func (l *ledger) MarkJobPaid(ctx context.Context, jobID uuid.UUID, paidAt time.Time) (bool, error) {
	res := l.tx.WithContext(ctx).Exec(`
		UPDATE jobs
		SET paid = TRUE, payment_date = ?, updated_at = ?
		WHERE id = ? AND paid IS NULL
	`, paidAt, paidAt, jobID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// uniqueSorted orders ids so concurrent transactions lock rows in the same order.
func uniqueSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result
}
