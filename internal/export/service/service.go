// Package service hosts export drafts: the new-export wizard and edit sessions
// of saved exports. It owns lot selection and reconciliation and submits the
// result to the warehouse API, which stays authoritative for stock.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/events"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

var (
	ErrDraftNotFound    = repository.ErrDraftNotFound
	ErrForeignExport    = errors.New("export belongs to another warehouse")
	ErrForeignWarehouse = errors.New("warehouse is not accessible to this user")
	ErrNoWarehouse      = errors.New("user is not assigned to a warehouse")
)

// RoleAdmin may list exports of any warehouse
const RoleAdmin = "admin"

// Actor is the authenticated caller. Its credentials are forwarded to the
// warehouse API on every remote call.
type Actor struct {
	UserID      string
	Role        string
	WarehouseID string
	Credentials client.Credentials
}

// WarehouseAPI is the remote collaborator owning exports and inventory
type WarehouseAPI interface {
	FetchInventory(ctx context.Context, cred client.Credentials, warehouseID string) ([]domain.InventoryLot, error)
	FetchProducts(ctx context.Context, cred client.Credentials) ([]client.Product, error)
	FetchZones(ctx context.Context, cred client.Credentials) ([]client.Zone, error)
	FetchCustomers(ctx context.Context, cred client.Credentials) ([]client.Customer, error)
	FetchWarehouses(ctx context.Context, cred client.Credentials) ([]client.Warehouse, error)
	CreateExport(ctx context.Context, cred client.Credentials, h domain.ExportHeader) (string, error)
	GetExport(ctx context.Context, cred client.Credentials, exportID string) (domain.ExportHeader, error)
	UpdateExport(ctx context.Context, cred client.Credentials, exportID string, h domain.ExportHeader) error
	DeleteExport(ctx context.Context, cred client.Credentials, exportID string) error
	ListExportsByWarehouse(ctx context.Context, cred client.Credentials, warehouseID string, q client.ListQuery) (json.RawMessage, error)
	CountExportsByWarehouse(ctx context.Context, cred client.Credentials, warehouseID, status, search string) (int, error)
	FetchExportDetails(ctx context.Context, cred client.Credentials, exportID string) ([]domain.SelectionLine, error)
	CreateExportDetails(ctx context.Context, cred client.Credentials, exportID string, lines []domain.SelectionLine) error
	UpdateExportDetails(ctx context.Context, cred client.Credentials, updates []domain.QuantityUpdate) error
	DeleteExportDetails(ctx context.Context, cred client.Credentials, ids []string) error
}

// Journal records every submission attempt
type Journal interface {
	Record(ctx context.Context, s *repository.Submission) error
	ListIncomplete(ctx context.Context, warehouseID string, limit int) ([]repository.Submission, error)
	ListByExport(ctx context.Context, exportID string) ([]repository.Submission, error)
}

var (
	_ WarehouseAPI = (*client.Client)(nil)
	_ Journal      = (*repository.SubmissionRepository)(nil)
)

// ExportService implements draft handling and submission
type ExportService struct {
	drafts  repository.DraftStore
	api     WarehouseAPI
	journal Journal
	events  *events.ExportEventPublisher
	logger  *logger.Logger
	locks   *draftLocks

	now   func() time.Time
	newID func() string
}

// Option configures an ExportService
type Option func(*ExportService)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *ExportService) { s.now = now }
}

// WithIDGenerator overrides how draft and line ids are generated
func WithIDGenerator(fn func() string) Option {
	return func(s *ExportService) { s.newID = fn }
}

// NewExportService creates the export service. journal and publisher may be nil.
func NewExportService(
	drafts repository.DraftStore,
	api WarehouseAPI,
	journal Journal,
	publisher *events.ExportEventPublisher,
	log *logger.Logger,
	opts ...Option,
) *ExportService {
	s := &ExportService{
		drafts:  drafts,
		api:     api,
		journal: journal,
		events:  publisher,
		logger:  log.WithComponent("export-service"),
		locks:   newDraftLocks(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// index rebuilds the lot index of a draft. Edit sessions get back the stock
// their saved lines hold.
func (s *ExportService) index(d *repository.Draft) *lots.Index {
	idx := lots.Build(d.Lots, d.WarehouseID)
	if d.IsEdit() {
		idx = idx.Credit(d.Reserved)
	}
	return idx
}

// set restores the selection of a draft
func (s *ExportService) set(d *repository.Draft) *selection.Set {
	var baseline []domain.SelectionLine
	if d.IsEdit() {
		baseline = d.Baseline
		if baseline == nil {
			baseline = []domain.SelectionLine{}
		}
	}
	return selection.New(d.Lines, baseline, selection.WithIDGenerator(s.newID))
}

// load fetches a draft owned by actor. Drafts of other users look missing.
func (s *ExportService) load(ctx context.Context, actor Actor, id string) (*repository.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != actor.UserID {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// mutate runs fn on a locked draft and saves it when fn succeeds
func (s *ExportService) mutate(ctx context.Context, actor Actor, id string, fn func(d *repository.Draft) error) (*repository.Draft, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	d, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	s.settle(d)
	d.UpdatedAt = s.now().UTC()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// settle steps the draft back to the first gate its data no longer passes
func (s *ExportService) settle(d *repository.Draft) {
	m, err := wizard.New(d.Step)
	if err != nil {
		return
	}
	if err := m.Settle(gates{draft: d, idx: s.index(d)}); err != nil {
		s.logger.WithDraftID(d.ID).Debug().
			Str("from", string(d.Step)).
			Str("to", string(m.Step())).
			Err(err).
			Msg("export draft stepped back")
	}
	d.Step = m.Step()
}

func (s *ExportService) checkWarehouse(actor Actor, warehouseID string) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.WarehouseID == "" {
		return ErrNoWarehouse
	}
	if warehouseID != actor.WarehouseID {
		return ErrForeignWarehouse
	}
	return nil
}

func (s *ExportService) record(ctx context.Context, sub *repository.Submission) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("draft_id", sub.DraftID).Str("outcome", string(sub.Outcome)).Msg("failed to journal submission")
	}
}
