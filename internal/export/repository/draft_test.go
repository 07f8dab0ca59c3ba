package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
	"github.com/wareflow/wareflow-backend/pkg/testutil"
)

func sampleDraft() *repository.Draft {
	f := testutil.NewFixtureFactory()
	lot := f.Lot(testutil.WithLot("p1", "z1", "2025-03-01"))
	saved := f.SavedLine(lot, 5)
	base := f.Header()

	return &repository.Draft{
		ID:             "draft-1",
		Kind:           repository.DraftKindEdit,
		ExportID:       "9",
		WarehouseID:    testutil.DefaultWarehouseID,
		UserID:         "u1",
		Step:           wizard.StepProducts,
		Header:         base,
		BaselineHeader: &base,
		Lines:          []domain.SelectionLine{saved},
		Baseline:       []domain.SelectionLine{saved},
		Lots:           []domain.InventoryLot{lot},
		CreatedAt:      time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2025, 1, 1, 10, 5, 0, 0, time.UTC),
	}
}

func stores(t *testing.T) map[string]repository.DraftStore {
	return map[string]repository.DraftStore{
		"memory": repository.NewMemoryDraftStore(time.Hour),
		"redis":  repository.NewRedisDraftStore(testutil.NewMockCache(), time.Hour),
	}
}

func TestDraftStore_RoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := sampleDraft()

			require.NoError(t, store.Save(ctx, d))

			got, err := store.Get(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, d, got)
			assert.True(t, got.IsEdit())
		})
	}
}

func TestDraftStore_ReturnsCopies(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := sampleDraft()
			require.NoError(t, store.Save(ctx, d))

			d.Lines[0].Quantity = 99

			got, err := store.Get(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, got.Lines[0].Quantity)
		})
	}
}

func TestDraftStore_NotFoundAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, repository.ErrDraftNotFound)

			d := sampleDraft()
			require.NoError(t, store.Save(ctx, d))
			require.NoError(t, store.Delete(ctx, d.ID))
			require.NoError(t, store.Delete(ctx, d.ID))

			_, err = store.Get(ctx, d.ID)
			assert.ErrorIs(t, err, repository.ErrDraftNotFound)
		})
	}
}

func TestRedisDraftStore_KeyAndTTL(t *testing.T) {
	c := testutil.NewMockCache()
	store := repository.NewRedisDraftStore(c, 2*time.Hour)

	require.NoError(t, store.Save(context.Background(), sampleDraft()))

	assert.Equal(t, 2*time.Hour, c.TTLs["wareflow:export:draft:draft-1"])
	assert.Contains(t, c.Values["wareflow:export:draft:draft-1"], `"kind":"edit"`)
}

func TestRedisDraftStore_Errors(t *testing.T) {
	c := testutil.NewMockCache()
	store := repository.NewRedisDraftStore(c, time.Hour)
	ctx := context.Background()

	c.Values["wareflow:export:draft:bad"] = "{not json"
	_, err := store.Get(ctx, "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDraftNotFound)

	c.FailGet = errors.New("connection refused")
	_, err = store.Get(ctx, "draft-1")
	assert.ErrorContains(t, err, "connection refused")

	c.FailSet = errors.New("OOM")
	assert.ErrorContains(t, store.Save(ctx, sampleDraft()), "OOM")
}
