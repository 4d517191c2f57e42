// Package certificate is the certificate registry: write-once storage of
// issued certificates keyed by certificate id.
package certificate

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"credchain/internal/certificate/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	certs map[string]*models.Certificate
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{certs: make(map[string]*models.Certificate)}
}

// Create inserts cert; ErrConflict when the id is already registered.
func (s *InMemoryStore) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.certs[cert.ID]; exists {
		return fmt.Errorf("certificate %s: %w", cert.ID, sentinel.ErrConflict)
	}
	stored := *cert
	s.certs[cert.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[id]
	if !ok {
		return nil, fmt.Errorf("certificate %s: %w", id, sentinel.ErrNotFound)
	}
	found := *cert
	return &found, nil
}

func (s *InMemoryStore) ListByInstitution(_ context.Context, id domain.InstitutionID) ([]*models.Certificate, error) {
	return s.list(func(c *models.Certificate) bool { return c.InstitutionID == id }), nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, id domain.StudentID) ([]*models.Certificate, error) {
	return s.list(func(c *models.Certificate) bool { return c.StudentID == id }), nil
}

// list returns copies of matching certificates, newest first.
func (s *InMemoryStore) list(match func(*models.Certificate) bool) []*models.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Certificate, 0)
	for _, c := range s.certs {
		if match(c) {
			found := *c
			out = append(out, &found)
		}
	}
	slices.SortFunc(out, func(a, b *models.Certificate) int {
		if c := b.IssuedAt.Compare(a.IssuedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
