package refreshtoken

import (
	"context"
	"fmt"
	"sync"
	"time"

	"credchain/internal/auth/models"
	"credchain/pkg/platform/sentinel"
)

// Error Contract:
// - Find returns ErrNotFound when no record holds the token value
// - Delete operations report how many rows they removed and never fail on absence
//
// InMemoryRefreshTokenStore stores refresh tokens in memory for tests/dev.
type InMemoryRefreshTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*models.RefreshTokenRecord
}

// New constructs an empty in-memory refresh token store.
func New() *InMemoryRefreshTokenStore {
	return &InMemoryRefreshTokenStore{tokens: make(map[string]*models.RefreshTokenRecord)}
}

func (s *InMemoryRefreshTokenStore) Create(_ context.Context, token *models.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *token
	s.tokens[token.Token] = &record
	return nil
}

func (s *InMemoryRefreshTokenStore) Find(_ context.Context, token string) (*models.RefreshTokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.tokens[token]; ok {
		found := *record
		return &found, nil
	}
	return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryRefreshTokenStore) DeleteByToken(_ context.Context, token string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; !ok {
		return 0, nil
	}
	delete(s.tokens, token)
	return 1, nil
}

// DeleteExpired removes all refresh tokens that have expired as of now.
func (s *InMemoryRefreshTokenStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, token := range s.tokens {
		if token.IsExpired(now) {
			delete(s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}
