// Package store holds verification tokens, in memory or in Redis.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"credchain/internal/verifytoken/models"
	"credchain/pkg/platform/sentinel"
)

// InMemoryStore keeps tokens until DeleteExpired removes them.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*models.VerificationToken
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]*models.VerificationToken)}
}

// Save stores token; ErrConflict if the token value already exists.
func (s *InMemoryStore) Save(_ context.Context, token *models.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.Token]; exists {
		return fmt.Errorf("verification token: %w", sentinel.ErrConflict)
	}
	stored := *token
	s.tokens[token.Token] = &stored
	return nil
}

// Find returns the token regardless of expiry; callers decide validity.
func (s *InMemoryStore) Find(_ context.Context, token string) (*models.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vt, ok := s.tokens[token]
	if !ok {
		return nil, fmt.Errorf("verification token: %w", sentinel.ErrNotFound)
	}
	found := *vt
	return &found, nil
}

// DeleteExpired removes tokens that expired before cutoff.
func (s *InMemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, vt := range s.tokens {
		if vt.ExpiresAt.Before(cutoff) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}
