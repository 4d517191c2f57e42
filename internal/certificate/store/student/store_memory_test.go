package student

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/certificate/models"
	"credchain/pkg/domain"
	"credchain/pkg/platform/sentinel"
)

func newStudent(seid, name string) *models.Student {
	return &models.Student{
		ID:        domain.StudentID(uuid.New()),
		SEID:      seid,
		Name:      name,
		CreatedAt: time.Now(),
	}
}

func TestInMemoryStore_Lookups(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	st := newStudent("SEID123", "Asha Rao")
	require.NoError(t, store.Create(ctx, st))

	byID, err := store.FindByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "SEID123", byID.SEID)

	bySEID, err := store.FindBySEID(ctx, "SEID123")
	require.NoError(t, err)
	assert.Equal(t, st.ID, bySEID.ID)

	_, err = store.FindBySEID(ctx, "seid123")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.FindByID(ctx, domain.StudentID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_DuplicateSEID(t *testing.T) {
	store := NewInMemory()
	require.NoError(t, store.Create(context.Background(), newStudent("SEID123", "Asha Rao")))

	err := store.Create(context.Background(), newStudent("SEID123", "Someone Else"))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	for _, st := range []*models.Student{
		newStudent("SEID123", "Asha Rao"),
		newStudent("SEID456", "Ravi Kumar"),
		newStudent("XK-900", "Arun Rao"),
	} {
		require.NoError(t, store.Create(ctx, st))
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{name: "by name, ordered", query: "rao", want: []string{"Arun Rao", "Asha Rao"}},
		{name: "by seid", query: "seid4", want: []string{"Ravi Kumar"}},
		{name: "empty lists all", query: "", want: []string{"Arun Rao", "Asha Rao", "Ravi Kumar"}},
		{name: "limit applies", query: "", limit: 2, want: []string{"Arun Rao", "Asha Rao"}},
		{name: "no match", query: "zed", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.query, tt.limit)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, st := range got {
				names = append(names, st.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
