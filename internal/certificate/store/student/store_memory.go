// Package student stores the learners certificates are issued to.
package student

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"credchain/internal/certificate/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 20

type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[domain.StudentID]*models.Student
	bySEID map[string]domain.StudentID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[domain.StudentID]*models.Student),
		bySEID: make(map[string]domain.StudentID),
	}
}

// Create registers a student; ErrConflict when the SEID is taken.
func (s *InMemoryStore) Create(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySEID[student.SEID]; taken {
		return fmt.Errorf("student seid %s: %w", student.SEID, sentinel.ErrConflict)
	}
	if _, taken := s.byID[student.ID]; taken {
		return fmt.Errorf("student %s: %w", student.ID, sentinel.ErrConflict)
	}
	stored := *student
	s.byID[student.ID] = &stored
	s.bySEID[student.SEID] = student.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.StudentID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", id, sentinel.ErrNotFound)
	}
	found := *student
	return &found, nil
}

func (s *InMemoryStore) FindBySEID(_ context.Context, seid string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySEID[seid]
	if !ok {
		return nil, fmt.Errorf("student seid %s: %w", seid, sentinel.ErrNotFound)
	}
	found := *s.byID[id]
	return &found, nil
}

// Search matches query case-insensitively against name and SEID, ordered by
// name. An empty query lists students.
func (s *InMemoryStore) Search(_ context.Context, query string, limit int) ([]*models.Student, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	out := make([]*models.Student, 0)
	for _, st := range s.byID {
		if q == "" || strings.Contains(strings.ToLower(st.Name), q) || strings.Contains(strings.ToLower(st.SEID), q) {
			found := *st
			out = append(out, &found)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Student) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.SEID, b.SEID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
