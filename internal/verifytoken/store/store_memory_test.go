package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/verifytoken/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

func newToken(value string, expiresAt time.Time) *models.VerificationToken {
	return &models.VerificationToken{
		Token:         value,
		CertificateID: "CERT-1",
		CreatedBy:     domain.AccountID(uuid.New()),
		CreatedAt:     expiresAt.Add(-24 * time.Hour),
		ExpiresAt:     expiresAt,
	}
}

func TestInMemoryStore_SaveFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	vt := newToken("abc", time.Now().Add(time.Hour))
	require.NoError(t, store.Save(ctx, vt))

	found, err := store.Find(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "CERT-1", found.CertificateID)

	assert.ErrorIs(t, store.Save(ctx, newToken("abc", time.Now())), sentinel.ErrConflict)

	_, err = store.Find(ctx, "nope")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_KeepsExpiredUntilPurged(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, newToken("old", now.Add(-48*time.Hour))))
	require.NoError(t, store.Save(ctx, newToken("recent", now.Add(-time.Hour))))
	require.NoError(t, store.Save(ctx, newToken("live", now.Add(time.Hour))))

	found, err := store.Find(ctx, "recent")
	require.NoError(t, err)
	assert.True(t, found.IsExpired(now))

	n, err := store.DeleteExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Find(ctx, "old")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = store.Find(ctx, "recent")
	assert.NoError(t, err)
}
