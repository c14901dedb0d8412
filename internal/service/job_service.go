package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

type JobService struct {
	repo ports.JobRepository
}

func NewJobService(repo ports.JobRepository) *JobService {
	return &JobService{repo: repo}
}

// ListUnpaidJobs returns unpaid jobs of in-progress contracts the caller is a party to.
func (s *JobService) ListUnpaidJobs(ctx context.Context, callerID uuid.UUID) ([]model.Job, error) {
	jobs, err := s.repo.ListUnpaidJobs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	return jobs, nil
}
