package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"credchain/internal/verifytoken/models"
	"credchain/pkg/platform/sentinel"
)

const tokenKeyPrefix = "credchain:vt:"

// RedisStore keeps each token as a JSON value whose key outlives the token
// expiry by the retention window, so recently expired tokens still resolve
// to Expired rather than NotFound.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	now       func() time.Time
}

type RedisOption func(*RedisStore)

// WithRetention sets how long expired tokens are kept.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d >= 0 {
			s.retention = d
		}
	}
}

func WithClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		retention: 7 * 24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes token with SET NX; ErrConflict if the value is taken.
func (s *RedisStore) Save(ctx context.Context, token *models.VerificationToken) error {
	body, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode verification token: %w", err)
	}
	ttl := token.ExpiresAt.Add(s.retention).Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := s.client.SetNX(ctx, tokenKeyPrefix+token.Token, body, ttl).Result()
	if err != nil {
		return fmt.Errorf("save verification token: %w", err)
	}
	if !ok {
		return fmt.Errorf("verification token: %w", sentinel.ErrConflict)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, token string) (*models.VerificationToken, error) {
	body, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("verification token: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load verification token: %w", err)
	}
	var vt models.VerificationToken
	if err := json.Unmarshal(body, &vt); err != nil {
		return nil, fmt.Errorf("decode verification token: %w", err)
	}
	return &vt, nil
}

// DeleteExpired is a no-op: Redis evicts keys once their TTL lapses.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
