package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) ListUnpaidJobs(ctx context.Context, profileID uuid.UUID) ([]model.Job, error) {
	var rows []jobRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+jobWithContractColumns+`
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid IS NULL
			AND c.status = 'in_progress'
			AND (c.contractor_id = ? OR c.client_id = ?)
		ORDER BY j.created_at ASC, j.id ASC
	`, profileID, profileID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toModel())
	}
	return jobs, nil
}
