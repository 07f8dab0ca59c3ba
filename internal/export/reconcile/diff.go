// Package reconcile computes the calls needed to bring a saved export's
// detail lines in line with an edited selection.
package reconcile

import (
	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
)

// Diff classifies current against baseline. New lines are created, saved
// lines whose quantity moved are updated, and saved lines that disappeared
// are deleted. Unchanged lines produce nothing. A line that claims to be
// saved but is unknown to the baseline has no server row and is created.
// Output follows the order of current, then of baseline for deletions.
func Diff(baseline, current []domain.SelectionLine) domain.DiffResult {
	res := domain.DiffResult{
		ToCreate: []domain.SelectionLine{},
		ToUpdate: []domain.QuantityUpdate{},
		ToDelete: []string{},
	}

	saved := make(map[string]domain.SelectionLine, len(baseline))
	for _, l := range baseline {
		saved[l.LocalID] = l
	}

	kept := make(map[string]bool, len(current))
	for _, l := range current {
		if l.IsNew {
			res.ToCreate = append(res.ToCreate, l)
			continue
		}
		base, ok := saved[l.LocalID]
		if !ok {
			res.ToCreate = append(res.ToCreate, l)
			continue
		}
		kept[l.LocalID] = true
		if l.Quantity != base.Quantity {
			res.ToUpdate = append(res.ToUpdate, domain.QuantityUpdate{ID: l.LocalID, Quantity: l.Quantity})
		}
	}

	for _, l := range baseline {
		if !kept[l.LocalID] {
			res.ToDelete = append(res.ToDelete, l.LocalID)
		}
	}

	return res
}

// Plan diffs and re-checks every line that would be sent against idx.
// Any failing line rejects the whole plan so nothing is submitted partially.
// idx must already include the stock held by the baseline (see lots.Index.Credit).
func Plan(idx *lots.Index, baseline, current []domain.SelectionLine) (domain.DiffResult, error) {
	diff := Diff(baseline, current)

	sent := make(map[string]bool, len(diff.ToCreate)+len(diff.ToUpdate))
	for _, l := range diff.ToCreate {
		sent[l.LocalID] = true
	}
	for _, u := range diff.ToUpdate {
		sent[u.ID] = true
	}

	var failed []*domain.LineError
	for _, e := range selection.Validate(idx, current).Errors {
		if sent[e.LineID] {
			failed = append(failed, e)
		}
	}
	if len(failed) > 0 {
		return domain.DiffResult{}, &domain.ValidationError{Lines: failed}
	}

	return diff, nil
}
