package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/service"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

func TestToAppError(t *testing.T) {
	remote := &client.RemoteError{Op: "create export", StatusCode: 500, Message: "db down"}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error passes through", errors.Conflict("busy"), http.StatusConflict, "CONFLICT"},
		{"submit failure", &service.SubmitError{Phase: service.PhaseHeader, Err: remote}, http.StatusBadGateway, "SUBMIT_FAILED"},
		{"header", &domain.HeaderError{Fields: map[string]string{"type": "is required"}}, http.StatusUnprocessableEntity, "HEADER_VALIDATION_ERROR"},
		{"lines", &domain.ValidationError{Lines: []*domain.LineError{{LineID: "l1", Err: domain.ErrQuantityExceedsStock}}}, http.StatusUnprocessableEntity, "QUANTITY_EXCEEDS_STOCK"},
		{"empty selection", domain.ErrEmptySelection, http.StatusUnprocessableEntity, "EMPTY_SELECTION"},
		{"locked line", domain.ErrLineLocked, http.StatusUnprocessableEntity, "LINE_LOCKED"},
		{"last line", domain.ErrLastLine, http.StatusUnprocessableEntity, "LAST_LINE"},
		{"missing line", fmt.Errorf("%w: x", domain.ErrLineNotFound), http.StatusNotFound, "LINE_NOT_FOUND"},
		{"remote", fmt.Errorf("failed to load inventory: %w", remote), http.StatusBadGateway, "REMOTE_REQUEST_FAILED"},
		{"remote not found", &client.RemoteError{Op: "get export", StatusCode: 404}, http.StatusNotFound, "NOT_FOUND"},
		{"remote details not found", fmt.Errorf("failed to load export details: %w", &client.RemoteError{Op: "fetch export details", StatusCode: 404}), http.StatusNotFound, "NOT_FOUND"},
		{"inventory 404 is upstream", fmt.Errorf("failed to load inventory: %w", &client.RemoteError{Op: "fetch inventory", StatusCode: 404}), http.StatusBadGateway, "REMOTE_REQUEST_FAILED"},
		{"reference 404 is upstream", &client.RemoteError{Op: "fetch zones", StatusCode: 404}, http.StatusBadGateway, "REMOTE_REQUEST_FAILED"},
		{"draft", service.ErrDraftNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"foreign export", service.ErrForeignExport, http.StatusForbidden, "FORBIDDEN"},
		{"no warehouse", service.ErrNoWarehouse, http.StatusForbidden, "FORBIDDEN"},
		{"unknown step", fmt.Errorf("%w: %q", wizard.ErrUnknownStep, "X"), http.StatusBadRequest, "BAD_REQUEST"},
		{"not submittable", wizard.ErrNotSubmittable, http.StatusConflict, "CONFLICT"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAppError(tt.err)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestToAppError_SubmitDetails(t *testing.T) {
	err := &service.SubmitError{Phase: service.PhaseDetails, ExportID: "exp-1", Err: fmt.Errorf("timeout")}

	got := toAppError(err)
	assert.Equal(t, "create", got.Details["phase"])
	assert.Equal(t, "exp-1", got.Details["export_id"])
	assert.Equal(t, "true", got.Details["incomplete"])
}

func TestToAppError_RemoteNotFoundNamesExport(t *testing.T) {
	got := toAppError(&client.RemoteError{Op: "delete export", StatusCode: http.StatusNotFound, Message: "gone"})
	assert.Equal(t, http.StatusNotFound, got.StatusCode)
	assert.Contains(t, got.Message, "export")

	got = toAppError(&client.RemoteError{Op: "fetch inventory", StatusCode: http.StatusNotFound, Message: "no route"})
	assert.NotContains(t, got.Message, "export not found")
}
