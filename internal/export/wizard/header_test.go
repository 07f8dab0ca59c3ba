package wizard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
)

func TestValidateHeader(t *testing.T) {
	base := domain.ExportHeader{
		Description:     "weekly dispatch",
		WarehouseIDFrom: "w1",
	}

	tests := []struct {
		name   string
		modify func(h *domain.ExportHeader)
		fields []string
	}{
		{
			name:   "customer export with customer",
			modify: func(h *domain.ExportHeader) { h.Type = domain.ExportTypeCustomer; h.CustomerID = "c1" },
		},
		{
			name:   "customer export without customer",
			modify: func(h *domain.ExportHeader) { h.Type = domain.ExportTypeCustomer },
			fields: []string{"customer_id"},
		},
		{
			name:   "warehouse export without destination",
			modify: func(h *domain.ExportHeader) { h.Type = domain.ExportTypeWarehouse; h.CustomerID = "c1" },
			fields: []string{"warehouse_id_to"},
		},
		{
			name: "warehouse export to itself",
			modify: func(h *domain.ExportHeader) {
				h.Type = domain.ExportTypeWarehouse
				h.WarehouseIDTo = "w1"
			},
			fields: []string{"warehouse_id_to"},
		},
		{
			name:   "waste needs no destination",
			modify: func(h *domain.ExportHeader) { h.Type = domain.ExportTypeWaste },
		},
		{
			name: "missing description and type",
			modify: func(h *domain.ExportHeader) {
				h.Description = ""
			},
			fields: []string{"description", "type"},
		},
		{
			name: "unknown type",
			modify: func(h *domain.ExportHeader) {
				h.Type = "GIFT"
			},
			fields: []string{"type"},
		},
		{
			name: "description too long",
			modify: func(h *domain.ExportHeader) {
				h.Type = domain.ExportTypeWaste
				h.Description = strings.Repeat("x", 501)
			},
			fields: []string{"description"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := base
			tt.modify(&h)

			err := wizard.ValidateHeader(h)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, domain.ErrHeaderValidation)
			herr, ok := err.(*domain.HeaderError)
			require.True(t, ok)
			for _, f := range tt.fields {
				assert.Contains(t, herr.Fields, f)
			}
			assert.Len(t, herr.Fields, len(tt.fields))
		})
	}
}
