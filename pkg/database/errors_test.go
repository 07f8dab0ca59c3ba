package database_test

import (
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantStatus int
		wantDetail string
	}{
		{name: "not a pq error", err: assert.AnError, wantNil: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, wantStatus: http.StatusConflict},
		{name: "foreign key", err: &pq.Error{Code: "23503"}, wantStatus: http.StatusBadRequest},
		{name: "not null", err: &pq.Error{Code: "23502", Column: "draft_id"}, wantStatus: http.StatusBadRequest, wantDetail: "draft_id"},
		{name: "phase check", err: &pq.Error{Code: "23514", Constraint: "export_submissions_phase_valid"}, wantStatus: http.StatusBadRequest, wantDetail: "phase"},
		{name: "unmapped code", err: &pq.Error{Code: "40001"}, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			if tt.wantDetail != "" {
				assert.Contains(t, got.Details, tt.wantDetail)
			}
		})
	}
}
