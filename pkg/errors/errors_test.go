package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wareflow/wareflow-backend/pkg/errors"
)

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("loading draft: %w", apperrors.NotFound("draft"))

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "draft not found: resource not found", appErr.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperrors.AppError
		code   string
		status int
		target error
	}{
		{"unprocessable", apperrors.Unprocessable("EMPTY_SELECTION", "add a product"), "EMPTY_SELECTION", http.StatusUnprocessableEntity, apperrors.ErrUnprocessable},
		{"bad gateway", apperrors.BadGateway("REMOTE_REQUEST_FAILED", "upstream"), "REMOTE_REQUEST_FAILED", http.StatusBadGateway, apperrors.ErrBadGateway},
		{"conflict", apperrors.Conflict("busy"), "CONFLICT", http.StatusConflict, apperrors.ErrConflict},
		{"token expired", apperrors.TokenExpired(), "TOKEN_EXPIRED", http.StatusUnauthorized, apperrors.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.ErrorIs(t, tt.err, tt.target)
		})
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := apperrors.Unprocessable("QUANTITY_EXCEEDS_STOCK", "too much").
		WithDetail("line_id", "l1").
		WithDetail("available", "4")

	assert.Equal(t, map[string]string{"line_id": "l1", "available": "4"}, err.Details)
}
