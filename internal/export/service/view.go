package service

import (
	"errors"
	"time"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/reconcile"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
)

// LineIssue is a validation problem of one line shown next to it
type LineIssue struct {
	LineID    string `json:"line_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

// DraftView is what the dashboard renders for a draft
type DraftView struct {
	ID            string                 `json:"id"`
	Kind          repository.DraftKind   `json:"kind"`
	ExportID      string                 `json:"export_id,omitempty"`
	Step          wizard.Step            `json:"step"`
	Header        domain.ExportHeader    `json:"header"`
	Lines         []domain.SelectionLine `json:"lines"`
	Summary       []domain.SummaryRow    `json:"summary"`
	TotalQuantity int                    `json:"total_quantity"`
	Issues        []LineIssue            `json:"issues"`
	HeaderChanged bool                   `json:"header_changed,omitempty"`
	Pending       *domain.DiffResult     `json:"pending,omitempty"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (s *ExportService) view(d *repository.Draft) *DraftView {
	v := &DraftView{
		ID:            d.ID,
		Kind:          d.Kind,
		ExportID:      d.ExportID,
		Step:          d.Step,
		Header:        d.Header,
		Lines:         d.Lines,
		Summary:       selection.Summarize(d.Lines),
		TotalQuantity: selection.TotalQuantity(d.Lines),
		Issues:        issues(selection.Validate(s.index(d), d.Lines)),
		UpdatedAt:     d.UpdatedAt,
	}
	if v.Lines == nil {
		v.Lines = []domain.SelectionLine{}
	}
	if d.IsEdit() {
		diff := reconcile.Diff(d.Baseline, d.Lines)
		v.Pending = &diff
		v.HeaderChanged = headerChanged(d)
	}
	return v
}

func issues(res selection.Result) []LineIssue {
	out := make([]LineIssue, 0, len(res.Errors))
	for _, e := range res.Errors {
		issue := LineIssue{
			LineID:  e.LineID,
			Code:    domain.Code(e.Err),
			Message: e.Err.Error(),
		}
		if errors.Is(e.Err, domain.ErrQuantityExceedsStock) {
			issue.Requested = e.Requested
			issue.Available = e.Available
		}
		out = append(out, issue)
	}
	return out
}

func headerChanged(d *repository.Draft) bool {
	if d.BaselineHeader == nil {
		return false
	}
	return !d.Header.Equal(*d.BaselineHeader)
}

// Choice is one selectable product or zone
type Choice struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Options are the choices still legal for one line
type Options struct {
	Products          []Choice      `json:"products"`
	Zones             []Choice      `json:"zones"`
	Expiries          []domain.Date `json:"expiries"`
	AvailableQuantity *int          `json:"available_quantity,omitempty"`
}

// names maps product and zone ids of the snapshot to display names
type names struct {
	products map[string]string
	zones    map[string]string
}

func namesOf(lots []domain.InventoryLot) names {
	n := names{products: map[string]string{}, zones: map[string]string{}}
	for _, l := range lots {
		if l.ProductName != "" {
			n.products[l.ProductID] = l.ProductName
		}
		if l.ZoneName != "" {
			n.zones[l.ZoneID] = l.ZoneName
		}
	}
	return n
}

func choices(ids []string, labels map[string]string) []Choice {
	out := make([]Choice, 0, len(ids))
	for _, id := range ids {
		out = append(out, Choice{ID: id, Name: labels[id]})
	}
	return out
}
