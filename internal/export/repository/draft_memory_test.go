package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDraftStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryDraftStore(time.Hour)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Draft{ID: "d1"}))

	now = now.Add(59 * time.Minute)
	_, err := store.Get(ctx, "d1")
	require.NoError(t, err)

	// saving again restarts the window
	require.NoError(t, store.Save(ctx, &Draft{ID: "d1"}))
	now = now.Add(59 * time.Minute)
	_, err = store.Get(ctx, "d1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Empty(t, store.entries)
}

func TestMemoryDraftStore_NoTTL(t *testing.T) {
	store := NewMemoryDraftStore(0)
	store.now = func() time.Time { return time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, store.Save(context.Background(), &Draft{ID: "d1"}))
	_, err := store.Get(context.Background(), "d1")
	assert.NoError(t, err)
}
