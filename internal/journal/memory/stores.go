// Package memory provides in-memory journal stores for tests and
// journal-less deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/journal"
)

// NewJournal bundles fresh in-memory stores.
func NewJournal() *journal.Journal {
	return &journal.Journal{
		Validations: NewValidationStore(),
		Plans:       NewPlanStore(),
		Summaries:   NewSummaryStore(),
	}
}

// ValidationStore is an in-memory implementation of
// journal.ValidationStore.
type ValidationStore struct {
	mu   sync.RWMutex
	data []*journal.ValidationRecord
}

// NewValidationStore creates a new in-memory validation store.
func NewValidationStore() *ValidationStore {
	return &ValidationStore{}
}

var _ journal.ValidationStore = (*ValidationStore)(nil)

// Insert adds a validation record.
func (s *ValidationStore) Insert(_ context.Context, rec *journal.ValidationRecord) error {
	if rec == nil || rec.Mint == "" {
		return journal.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	s.data = append(s.data, &recCopy)
	return nil
}

// GetByMint retrieves all records for a mint, ordered by check time ASC.
func (s *ValidationStore) GetByMint(_ context.Context, mint string) ([]*journal.ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*journal.ValidationRecord
	for _, rec := range s.data {
		if rec.Mint == mint {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CheckedAt.Before(result[j].CheckedAt)
	})
	return result, nil
}

// PlanStore is an in-memory implementation of journal.PlanStore.
type PlanStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PurchasePlan // keyed by plan_id
}

// NewPlanStore creates a new in-memory plan store.
func NewPlanStore() *PlanStore {
	return &PlanStore{
		data: make(map[string]*domain.PurchasePlan),
	}
}

var _ journal.PlanStore = (*PlanStore)(nil)

// Insert adds a plan with its legs. Returns ErrDuplicateKey if plan_id
// exists.
func (s *PlanStore) Insert(_ context.Context, plan *domain.PurchasePlan) error {
	if plan == nil || plan.PlanID == "" {
		return journal.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[plan.PlanID]; exists {
		return journal.ErrDuplicateKey
	}
	s.data[plan.PlanID] = copyPlan(plan)
	return nil
}

// GetByID retrieves a plan with its legs. Returns ErrNotFound if not
// exists.
func (s *PlanStore) GetByID(_ context.Context, planID string) (*domain.PurchasePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, exists := s.data[planID]
	if !exists {
		return nil, journal.ErrNotFound
	}
	return copyPlan(plan), nil
}

// GetByMint retrieves all plans for a mint, ordered by creation ASC.
func (s *PlanStore) GetByMint(_ context.Context, mint string) ([]*domain.PurchasePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PurchasePlan
	for _, plan := range s.data {
		if plan.Candidate.Mint == mint {
			result = append(result, copyPlan(plan))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// copyPlan deep-copies a plan so callers cannot mutate stored legs.
func copyPlan(plan *domain.PurchasePlan) *domain.PurchasePlan {
	planCopy := *plan
	planCopy.Legs = make([]*domain.PurchaseLeg, len(plan.Legs))
	for i, leg := range plan.Legs {
		legCopy := *leg
		planCopy.Legs[i] = &legCopy
	}
	return &planCopy
}

// SummaryStore is an in-memory implementation of journal.SummaryStore.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExecutionSummary // keyed by plan_id
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		data: make(map[string]*domain.ExecutionSummary),
	}
}

var _ journal.SummaryStore = (*SummaryStore)(nil)

// Insert adds a summary. Returns ErrDuplicateKey if plan_id exists.
func (s *SummaryStore) Insert(_ context.Context, summary *domain.ExecutionSummary) error {
	if summary == nil || summary.PlanID == "" {
		return journal.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[summary.PlanID]; exists {
		return journal.ErrDuplicateKey
	}
	summaryCopy := *summary
	summaryCopy.Signatures = append([]string(nil), summary.Signatures...)
	s.data[summary.PlanID] = &summaryCopy
	return nil
}

// GetByPlanID retrieves the summary for a plan. Returns ErrNotFound if
// not exists.
func (s *SummaryStore) GetByPlanID(_ context.Context, planID string) (*domain.ExecutionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, exists := s.data[planID]
	if !exists {
		return nil, journal.ErrNotFound
	}
	summaryCopy := *summary
	summaryCopy.Signatures = append([]string(nil), summary.Signatures...)
	return &summaryCopy, nil
}

// GetRecent retrieves the newest summaries, ordered by creation DESC.
func (s *SummaryStore) GetRecent(_ context.Context, limit int) ([]*domain.ExecutionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ExecutionSummary, 0, len(s.data))
	for _, summary := range s.data {
		summaryCopy := *summary
		summaryCopy.Signatures = append([]string(nil), summary.Signatures...)
		result = append(result, &summaryCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
