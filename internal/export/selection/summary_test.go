package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
)

func TestSummarize_GroupsByProductAndExpiry(t *testing.T) {
	lines := []domain.SelectionLine{
		newLine("a", "p2", "z1", "2025-03-01", 2),
		newLine("b", "p1", "z1", "2025-04-01", 1),
		newLine("c", "p1", "z2", "2025-04-01", 4),
		newLine("d", "p1", "z1", "2025-03-01", 3),
		newLine("e", "p1", "", "", 9),
	}

	assert.Equal(t, []domain.SummaryRow{
		{ProductID: "p1", ExpiredAt: "2025-03-01", Quantity: 3, Lines: 1},
		{ProductID: "p1", ExpiredAt: "2025-04-01", Quantity: 5, Lines: 2},
		{ProductID: "p2", ExpiredAt: "2025-03-01", Quantity: 2, Lines: 1},
	}, selection.Summarize(lines))
	assert.Equal(t, 19, selection.TotalQuantity(lines))
}
