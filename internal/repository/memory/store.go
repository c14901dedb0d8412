// Package memory is an in-process implementation of the repository ports.
// Transactions are serialized by a single mutex and roll back by restoring a
// snapshot, which gives the same all-or-nothing behaviour as PostgreSQL for
// the single-node case.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

// Ledger operation names accepted by FailOn.
const (
	OpLockJob          = "lock_job"
	OpLockProfiles     = "lock_profiles"
	OpOutstandingTotal = "outstanding_total"
	OpAdjustBalance    = "adjust_balance"
	OpMarkJobPaid      = "mark_job_paid"
)

type Store struct {
	mu        sync.Mutex
	profiles  map[uuid.UUID]model.Profile
	contracts map[uuid.UUID]model.Contract
	jobs      map[uuid.UUID]model.Job
	order     []uuid.UUID // contract insertion order
	faults    map[string]error
}

func NewStore() *Store {
	return &Store{
		profiles:  make(map[uuid.UUID]model.Profile),
		contracts: make(map[uuid.UUID]model.Contract),
		jobs:      make(map[uuid.UUID]model.Job),
		faults:    make(map[string]error),
	}
}

func (s *Store) AddProfile(p model.Profile) model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.profiles[p.ID] = p
	return p
}

func (s *Store) AddContract(c model.Contract) model.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, exists := s.contracts[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.contracts[c.ID] = c
	return c
}

func (s *Store) AddJob(j model.Job) model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	j.Contract = nil
	s.jobs[j.ID] = j
	return j
}

// Profile returns a stored profile by id, for assertions.
func (s *Store) Profile(id uuid.UUID) (model.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	return p, ok
}

// Job returns a stored job by id, for assertions.
func (s *Store) Job(id uuid.UUID) (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// FailOn makes the named ledger operation return err until cleared with nil.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) GetProfile(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (s *Store) ListContractsByProfile(_ context.Context, profileID uuid.UUID) ([]model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]model.Contract, 0)
	for _, id := range s.order {
		if c := s.contracts[id]; c.HasParty(profileID) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Store) ListUnpaidJobs(_ context.Context, profileID uuid.UUID) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]model.Job, 0)
	for _, j := range s.jobs {
		c, ok := s.contracts[j.ContractID]
		if !ok || j.Paid != nil || c.Status != model.ContractStatusInProgress || !c.HasParty(profileID) {
			continue
		}
		j.Contract = &c
		result = append(result, j)
	}
	sortJobs(result)
	return result, nil
}

func (s *Store) BestProfession(_ context.Context, from, to time.Time, metric model.ProfessionMetric) (*model.ProfessionEarnings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]decimal.Decimal)
	for _, j := range s.paidJobsIn(from, to) {
		contractor := s.profiles[s.contracts[j.ContractID].ContractorID]
		current, seen := totals[contractor.Profession]
		switch {
		case !seen:
			totals[contractor.Profession] = j.Price
		case metric == model.ProfessionMetricSum:
			totals[contractor.Profession] = current.Add(j.Price)
		case j.Price.GreaterThan(current):
			totals[contractor.Profession] = j.Price
		}
	}
	if len(totals) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var best *model.ProfessionEarnings
	for profession, amount := range totals {
		if best == nil || amount.GreaterThan(best.Amount) ||
			(amount.Equal(best.Amount) && profession < best.Profession) {
			best = &model.ProfessionEarnings{Profession: profession, Amount: amount}
		}
	}
	return best, nil
}

func (s *Store) BestClients(_ context.Context, from, to time.Time, limit int) ([]model.ClientSpending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, j := range s.paidJobsIn(from, to) {
		clientID := s.contracts[j.ContractID].ClientID
		totals[clientID] = totals[clientID].Add(j.Price)
	}

	result := make([]model.ClientSpending, 0, len(totals))
	for id, paid := range totals {
		result = append(result, model.ClientSpending{
			ID:       id,
			FullName: s.profiles[id].FullName(),
			Paid:     paid,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Paid.Equal(result[j].Paid) {
			return result[i].Paid.GreaterThan(result[j].Paid)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) WithinTransaction(_ context.Context, fn func(ledger ports.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := make(map[uuid.UUID]model.Profile, len(s.profiles))
	for k, v := range s.profiles {
		profiles[k] = v
	}
	jobs := make(map[uuid.UUID]model.Job, len(s.jobs))
	for k, v := range s.jobs {
		jobs[k] = v
	}

	if err := fn(&ledger{store: s}); err != nil {
		s.profiles = profiles
		s.jobs = jobs
		return err
	}
	return nil
}

// paidJobsIn expects s.mu to be held.
func (s *Store) paidJobsIn(from, to time.Time) []model.Job {
	var result []model.Job
	for _, j := range s.jobs {
		if !j.IsPaid() || j.CreatedAt.Before(from) || j.CreatedAt.After(to) {
			continue
		}
		result = append(result, j)
	}
	return result
}

// ledger runs with the store mutex already held by WithinTransaction.
type ledger struct {
	store *Store
}

func (l *ledger) fault(op string) error {
	return l.store.faults[op]
}

func (l *ledger) LockJob(_ context.Context, jobID uuid.UUID) (*model.Job, error) {
	if err := l.fault(OpLockJob); err != nil {
		return nil, err
	}
	j, ok := l.store.jobs[jobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c, ok := l.store.contracts[j.ContractID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	j.Contract = &c
	return &j, nil
}

func (l *ledger) LockProfiles(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Profile, error) {
	if err := l.fault(OpLockProfiles); err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]*model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := l.store.profiles[id]; ok {
			result[id] = &p
		}
	}
	return result, nil
}

func (l *ledger) OutstandingTotal(_ context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	if err := l.fault(OpOutstandingTotal); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, j := range l.store.jobs {
		c, ok := l.store.contracts[j.ContractID]
		if !ok || j.Paid != nil || c.Status != model.ContractStatusInProgress || c.ClientID != clientID {
			continue
		}
		total = total.Add(j.Price)
	}
	return total, nil
}

func (l *ledger) AdjustBalance(_ context.Context, profileID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := l.fault(OpAdjustBalance); err != nil {
		return decimal.Zero, err
	}
	p, ok := l.store.profiles[profileID]
	if !ok {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	p.Balance = p.Balance.Add(delta)
	p.UpdatedAt = time.Now().UTC()
	l.store.profiles[profileID] = p
	return p.Balance, nil
}

func (l *ledger) MarkJobPaid(_ context.Context, jobID uuid.UUID, paidAt time.Time) (bool, error) {
	if err := l.fault(OpMarkJobPaid); err != nil {
		return false, err
	}
	j, ok := l.store.jobs[jobID]
	if !ok || j.Paid != nil {
		return false, nil
	}
	paid := true
	j.Paid = &paid
	j.PaymentDate = &paidAt
	j.UpdatedAt = paidAt
	l.store.jobs[jobID] = j
	return true, nil
}

func sortJobs(jobs []model.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].ID.String() < jobs[j].ID.String()
	})
}
