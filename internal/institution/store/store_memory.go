// Package store persists institutions.
package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"credchain/internal/institution/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.InstitutionID]*models.Institution
	byRegNo map[string]domain.InstitutionID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[domain.InstitutionID]*models.Institution),
		byRegNo: make(map[string]domain.InstitutionID),
	}
}

// Create stores inst; ErrConflict when the registration number is taken.
func (s *InMemoryStore) Create(_ context.Context, inst *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byRegNo[inst.GovtRegNo]; taken {
		return fmt.Errorf("institution %s: %w", inst.GovtRegNo, sentinel.ErrConflict)
	}
	stored := *inst
	s.byID[inst.ID] = &stored
	s.byRegNo[inst.GovtRegNo] = inst.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.InstitutionID) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("institution %s: %w", id, sentinel.ErrNotFound)
	}
	found := *inst
	return &found, nil
}

func (s *InMemoryStore) FindByGovtRegNo(_ context.Context, regNo string) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRegNo[regNo]
	if !ok {
		return nil, fmt.Errorf("institution %s: %w", regNo, sentinel.ErrNotFound)
	}
	found := *s.byID[id]
	return &found, nil
}

// List returns institutions ordered by name.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Institution, error) {
	s.mu.RLock()
	out := make([]*models.Institution, 0, len(s.byID))
	for _, inst := range s.byID {
		found := *inst
		out = append(out, &found)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *models.Institution) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Execute runs validate and, if it passes, mutate on the stored institution
// while holding the write lock, and returns the updated copy.
func (s *InMemoryStore) Execute(_ context.Context, id domain.InstitutionID, validate func(*models.Institution) error, mutate func(*models.Institution)) (*models.Institution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("institution %s: %w", id, sentinel.ErrNotFound)
	}
	working := *inst
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	stored := working
	s.byID[id] = &stored
	return &working, nil
}
