package selection

import (
	"sort"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

// Summarize groups complete lines by product and expiry day, summing
// quantities across zones. Rows are ordered by product, then expiry.
func Summarize(lines []domain.SelectionLine) []domain.SummaryRow {
	type group struct {
		product string
		expiry  domain.Date
	}

	rows := make(map[group]*domain.SummaryRow)
	for _, l := range lines {
		if !l.Complete() {
			continue
		}
		g := group{l.ProductID, l.ExpiredAt}
		row, ok := rows[g]
		if !ok {
			row = &domain.SummaryRow{ProductID: l.ProductID, ExpiredAt: l.ExpiredAt}
			rows[g] = row
		}
		row.Quantity += l.Quantity
		row.Lines++
	}

	out := make([]domain.SummaryRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].ExpiredAt.Before(out[j].ExpiredAt)
	})
	return out
}

// TotalQuantity sums the quantity of every line
func TotalQuantity(lines []domain.SelectionLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}
