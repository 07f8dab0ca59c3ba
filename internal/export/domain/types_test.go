package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

func TestExportHeader_Normalize(t *testing.T) {
	h := domain.ExportHeader{
		Type:          domain.ExportTypeWaste,
		WarehouseIDTo: "wh-2",
		CustomerID:    "cust-1",
	}.Normalize()
	assert.Empty(t, h.WarehouseIDTo)
	assert.Empty(t, h.CustomerID)
	assert.Equal(t, domain.StatusPending, h.Status)

	h = domain.ExportHeader{Type: domain.ExportTypeCustomer, WarehouseIDTo: "wh-2", CustomerID: "cust-1"}.Normalize()
	assert.Equal(t, "cust-1", h.CustomerID)
	assert.Empty(t, h.WarehouseIDTo)

	h = domain.ExportHeader{Type: domain.ExportTypeWarehouse, WarehouseIDTo: "wh-2", CustomerID: "cust-1", Status: "DONE"}.Normalize()
	assert.Equal(t, "wh-2", h.WarehouseIDTo)
	assert.Empty(t, h.CustomerID)
	assert.Equal(t, domain.ExportStatus("DONE"), h.Status)
}

func TestExportHeader_Equal(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	base := domain.ExportHeader{Description: "Weekly", Type: domain.ExportTypeCustomer, ExportDate: day, CustomerID: "cust-1"}

	same := base
	same.WarehouseIDTo = "ignored"
	same.Status = domain.StatusPending
	assert.True(t, base.Equal(same))

	other := base
	other.ExportDate = day.Add(24 * time.Hour)
	assert.False(t, base.Equal(other))

	other = base
	other.Description = "Monthly"
	assert.False(t, base.Equal(other))
}

func TestSelectionLine_Complete(t *testing.T) {
	l := domain.SelectionLine{ProductID: "p1", ZoneID: "z1", ExpiredAt: "2030-01-01", Quantity: 1}
	assert.True(t, l.Complete())

	l.Quantity = 0
	assert.True(t, l.References())
	assert.False(t, l.Complete())

	l.ZoneID = ""
	assert.False(t, l.References())
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrIncompleteLine, "INCOMPLETE_LINE"},
		{&domain.LineError{LineID: "l1", Err: domain.ErrQuantityExceedsStock, Requested: 5, Available: 4}, "QUANTITY_EXCEEDS_STOCK"},
		{domain.ErrEmptySelection, "EMPTY_SELECTION"},
		{&domain.HeaderError{Fields: map[string]string{"description": "required"}}, "HEADER_VALIDATION_ERROR"},
		{fmt.Errorf("patch: %w", domain.ErrLineLocked), "LINE_LOCKED"},
		{domain.ErrLastLine, "LAST_LINE"},
		{domain.ErrLineNotFound, "LINE_NOT_FOUND"},
		{domain.ErrRemoteRequestFailed, "REMOTE_REQUEST_FAILED"},
		{fmt.Errorf("boom"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.Code(tt.err), tt.err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := &domain.ValidationError{Lines: []*domain.LineError{
		{LineID: "l1", Err: domain.ErrIncompleteLine},
		{LineID: "l2", Err: domain.ErrQuantityExceedsStock, Requested: 5, Available: 4},
	}}

	assert.ErrorIs(t, err, domain.ErrIncompleteLine)
	assert.ErrorIs(t, err, domain.ErrQuantityExceedsStock)
	assert.Equal(t, "line l1: line is missing product, zone, expiry or quantity (and 1 more)", err.Error())
	assert.Equal(t, "line l2: quantity exceeds available stock (requested 5, available 4)", err.Lines[1].Error())
}
