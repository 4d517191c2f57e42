package account

import (
	"context"
	"fmt"
	"sync"

	"credchain/internal/auth/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in memory, indexed by normalized email.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.AccountID]*models.Account
	byEmail map[string]domain.AccountID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[domain.AccountID]*models.Account),
		byEmail: make(map[string]domain.AccountID),
	}
}

// Create stores a new account; ErrConflict if the email is taken.
func (s *InMemoryStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := models.NormalizeEmail(account.Email)
	if _, taken := s.byEmail[email]; taken {
		return fmt.Errorf("account email %s: %w", email, sentinel.ErrConflict)
	}
	stored := *account
	stored.Email = email
	s.byID[account.ID] = &stored
	s.byEmail[email] = account.ID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	found := *s.byID[id]
	return &found, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	found := *account
	return &found, nil
}
