package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
)

// ErrDraftNotFound is returned for unknown or expired drafts
var ErrDraftNotFound = errors.New("draft not found")

// DraftKind tells a new-export wizard from an edit of a saved export
type DraftKind string

const (
	DraftKindCreate DraftKind = "create"
	DraftKindEdit   DraftKind = "edit"
)

// Draft is the server-side state of one wizard or edit session.
// Lots is the inventory snapshot taken when the draft was opened and
// Reserved the saved lines already deducted from it at that time. Baseline
// tracks what the warehouse API currently holds and moves forward as a
// partially applied save succeeds.
type Draft struct {
	ID             string                 `json:"id"`
	Kind           DraftKind              `json:"kind"`
	ExportID       string                 `json:"export_id,omitempty"`
	WarehouseID    string                 `json:"warehouse_id"`
	UserID         string                 `json:"user_id"`
	Step           wizard.Step            `json:"step"`
	Header         domain.ExportHeader    `json:"header"`
	BaselineHeader *domain.ExportHeader   `json:"baseline_header,omitempty"`
	Lines          []domain.SelectionLine `json:"lines"`
	Baseline       []domain.SelectionLine `json:"baseline,omitempty"`
	Reserved       []domain.SelectionLine `json:"reserved,omitempty"`
	Lots           []domain.InventoryLot  `json:"lots"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// IsEdit reports whether the draft edits a saved export
func (d *Draft) IsEdit() bool { return d.Kind == DraftKindEdit }

// DraftStore keeps drafts between requests
type DraftStore interface {
	Get(ctx context.Context, id string) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, id string) error
}
