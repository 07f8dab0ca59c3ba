package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/pkg/testutil"
)

func TestSubmissionRepository_Integration(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)

	suite, err := testutil.NewIntegrationSuite(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	suite.Truncate(t, "export_submissions")
	repo := repository.NewSubmissionRepository(suite.DB)

	incomplete := &repository.Submission{
		DraftID:      "d1",
		Kind:         repository.SubmissionKindCreate,
		ExportID:     testutil.PtrString("42"),
		WarehouseID:  "w1",
		UserID:       "u1",
		Outcome:      repository.OutcomeIncomplete,
		FailedPhase:  testutil.PtrString("create"),
		ErrorMessage: testutil.PtrString("details rejected"),
	}
	require.NoError(t, repo.Record(ctx, incomplete))
	assert.False(t, incomplete.CreatedAt.IsZero())

	require.NoError(t, repo.Record(ctx, &repository.Submission{
		DraftID:      "d2",
		Kind:         repository.SubmissionKindEdit,
		ExportID:     testutil.PtrString("42"),
		WarehouseID:  "w1",
		UserID:       "u1",
		Outcome:      repository.OutcomeSucceeded,
		CreatedCount: 3,
	}))

	got, err := repo.ListIncomplete(ctx, "w1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, incomplete.ID, got[0].ID)

	history, err := repo.ListByExport(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	err = repo.Record(context.Background(), &repository.Submission{
		DraftID: "d3", Kind: "bogus", WarehouseID: "w1", UserID: "u1", Outcome: repository.OutcomeFailed,
	})
	assert.Error(t, err)
}
