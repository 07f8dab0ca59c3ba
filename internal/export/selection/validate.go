package selection

import (
	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
)

// Result is the outcome of Validate
type Result struct {
	Errors []*domain.LineError
}

// OK reports whether every line passed
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Err returns a *domain.ValidationError, or nil when every line passed
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &domain.ValidationError{Lines: r.Errors}
}

// Validate checks every line for completeness and for stock left after the
// claims of its siblings. It has no side effects.
func Validate(idx *lots.Index, lines []domain.SelectionLine) Result {
	var res Result
	for _, l := range lines {
		if !l.Complete() {
			res.Errors = append(res.Errors, &domain.LineError{LineID: l.LocalID, Err: domain.ErrIncompleteLine})
			continue
		}
		if available := AvailableQuantity(idx, lines, l.Key(), l.LocalID); l.Quantity > available {
			res.Errors = append(res.Errors, &domain.LineError{
				LineID:    l.LocalID,
				Err:       domain.ErrQuantityExceedsStock,
				Requested: l.Quantity,
				Available: available,
			})
		}
	}
	return res
}

// RequireLines fails with ErrEmptySelection when there is nothing to export
func RequireLines(lines []domain.SelectionLine) error {
	if len(lines) == 0 {
		return domain.ErrEmptySelection
	}
	return nil
}
