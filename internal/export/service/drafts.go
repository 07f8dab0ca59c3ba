package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/lots"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
)

// HeaderInput is the editable part of an export header. The source
// warehouse is always the draft's own.
type HeaderInput struct {
	Description   string
	Type          domain.ExportType
	ExportDate    time.Time
	WarehouseIDTo string
	CustomerID    string
}

// LinePatch changes some fields of a line. Fields apply in product, zone,
// expiry, quantity order so a product change resets before the new zone lands.
type LinePatch struct {
	ProductID *string
	ZoneID    *string
	ExpiredAt *domain.Date
	Quantity  *int
}

// StartDraft opens a new-export wizard on the caller's warehouse and takes
// the inventory snapshot used for the rest of the session.
func (s *ExportService) StartDraft(ctx context.Context, actor Actor) (*DraftView, error) {
	if actor.WarehouseID == "" {
		return nil, ErrNoWarehouse
	}

	inventory, err := s.api.FetchInventory(ctx, actor.Credentials, actor.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	now := s.now().UTC()
	d := &repository.Draft{
		ID:          s.newID(),
		Kind:        repository.DraftKindCreate,
		WarehouseID: actor.WarehouseID,
		UserID:      actor.UserID,
		Step:        wizard.StepInfo,
		Header: domain.ExportHeader{
			ExportDate:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
			Status:          domain.StatusPending,
			WarehouseIDFrom: actor.WarehouseID,
		},
		Lines:     []domain.SelectionLine{},
		Lots:      inventory,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("draft_id", d.ID).
		Str("warehouse_id", d.WarehouseID).
		Int("lots", len(inventory)).
		Msg("export draft started")

	return s.view(d), nil
}

// OpenEdit starts an edit session of a saved export. Its details become the
// baseline every later save is reconciled against.
func (s *ExportService) OpenEdit(ctx context.Context, actor Actor, exportID string) (*DraftView, error) {
	header, err := s.api.GetExport(ctx, actor.Credentials, exportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load export: %w", err)
	}

	warehouseID := header.WarehouseIDFrom
	if warehouseID == "" {
		warehouseID = actor.WarehouseID
	}
	if err := s.checkWarehouse(actor, warehouseID); err != nil {
		return nil, ErrForeignExport
	}

	saved, err := s.api.FetchExportDetails(ctx, actor.Credentials, exportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load export details: %w", err)
	}
	inventory, err := s.api.FetchInventory(ctx, actor.Credentials, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	header.ID = exportID
	header.WarehouseIDFrom = warehouseID
	baseHeader := header
	now := s.now().UTC()

	d := &repository.Draft{
		ID:             s.newID(),
		Kind:           repository.DraftKindEdit,
		ExportID:       exportID,
		WarehouseID:    warehouseID,
		UserID:         actor.UserID,
		Step:           wizard.StepReview,
		Header:         header,
		BaselineHeader: &baseHeader,
		Lines:          append([]domain.SelectionLine{}, saved...),
		Baseline:       append([]domain.SelectionLine{}, saved...),
		Reserved:       append([]domain.SelectionLine{}, saved...),
		Lots:           inventory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// An export left without details opens on the product step
	s.settle(d)
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("draft_id", d.ID).
		Str("export_id", exportID).
		Str("step", string(d.Step)).
		Int("lines", len(saved)).
		Msg("export edit session opened")

	return s.view(d), nil
}

// GetDraft returns the current view of a draft
func (s *ExportService) GetDraft(ctx context.Context, actor Actor, id string) (*DraftView, error) {
	d, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.view(d), nil
}

// CancelDraft discards a draft. Nothing is sent to the warehouse API.
func (s *ExportService) CancelDraft(ctx context.Context, actor Actor, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.load(ctx, actor, id); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("draft_id", id).Msg("export draft cancelled")
	return nil
}

// UpdateHeader replaces the editable header fields. Validation happens when
// leaving the Info step and on submit, so partial input is kept as typed.
func (s *ExportService) UpdateHeader(ctx context.Context, actor Actor, id string, in HeaderInput) (*DraftView, error) {
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		if err := notSubmitted(d); err != nil {
			return err
		}
		d.Header.Description = in.Description
		d.Header.Type = in.Type
		if !in.ExportDate.IsZero() {
			d.Header.ExportDate = in.ExportDate
		}
		d.Header.WarehouseIDTo = in.WarehouseIDTo
		d.Header.CustomerID = in.CustomerID
		d.Header.WarehouseIDFrom = d.WarehouseID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(d), nil
}

// AddLine appends a new line. Missing fields stay unset; quantity defaults to 1.
func (s *ExportService) AddLine(ctx context.Context, actor Actor, id string, in domain.SelectionLine) (*DraftView, domain.SelectionLine, error) {
	var added domain.SelectionLine
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		if err := notSubmitted(d); err != nil {
			return err
		}
		if in.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", domain.ErrIncompleteLine)
		}
		if in.Quantity == 0 {
			in.Quantity = selection.DefaultQuantity
		}
		set := s.set(d)
		added = set.Append(domain.SelectionLine{
			ProductID: in.ProductID,
			ZoneID:    in.ZoneID,
			ExpiredAt: in.ExpiredAt,
			Quantity:  in.Quantity,
		})
		d.Lines = set.Lines()
		return nil
	})
	if err != nil {
		return nil, domain.SelectionLine{}, err
	}
	return s.view(d), added, nil
}

// PatchLine changes fields of one line
func (s *ExportService) PatchLine(ctx context.Context, actor Actor, id, lineID string, p LinePatch) (*DraftView, error) {
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		if err := notSubmitted(d); err != nil {
			return err
		}
		set := s.set(d)
		if p.ProductID != nil {
			if _, err := set.SetProduct(lineID, *p.ProductID); err != nil {
				return err
			}
		}
		if p.ZoneID != nil {
			if _, err := set.SetZone(lineID, *p.ZoneID); err != nil {
				return err
			}
		}
		if p.ExpiredAt != nil {
			if _, err := set.SetExpiry(lineID, *p.ExpiredAt); err != nil {
				return err
			}
		}
		if p.Quantity != nil {
			if _, err := set.SetQuantity(lineID, *p.Quantity); err != nil {
				return err
			}
		}
		if _, err := set.Line(lineID); err != nil {
			return err
		}
		d.Lines = set.Lines()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(d), nil
}

// RemoveLine drops a line from the selection
func (s *ExportService) RemoveLine(ctx context.Context, actor Actor, id, lineID string) (*DraftView, error) {
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		if err := notSubmitted(d); err != nil {
			return err
		}
		set := s.set(d)
		if err := set.Remove(lineID); err != nil {
			return err
		}
		d.Lines = set.Lines()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(d), nil
}

// AutoSelect allocates quantity of a product over the earliest-expiring lots.
// With replace, unsaved lines are dropped first.
func (s *ExportService) AutoSelect(ctx context.Context, actor Actor, id, productID string, quantity int, replace bool) (*DraftView, selection.AutoSelectResult, error) {
	var res selection.AutoSelectResult
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		if err := notSubmitted(d); err != nil {
			return err
		}
		set := s.set(d)
		if replace {
			set.RemoveNew()
		}
		var err error
		res, err = set.AutoSelect(s.index(d), productID, quantity)
		if err != nil {
			return err
		}
		d.Lines = set.Lines()
		return nil
	})
	if err != nil {
		return nil, res, err
	}

	if res.Shortfall > 0 {
		s.logger.Debug().
			Str("draft_id", id).
			Str("product_id", productID).
			Int("shortfall", res.Shortfall).
			Msg("auto select could not cover the requested quantity")
	}
	return s.view(d), res, nil
}

// LineOptions returns the choices left for a line. With an empty lineID the
// options of a brand new line are returned. productID and zoneID narrow the
// zones and expiries; when empty they default to the line's current values.
func (s *ExportService) LineOptions(ctx context.Context, actor Actor, id, lineID, productID, zoneID string) (*Options, error) {
	d, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if lineID != "" {
		line, err := s.set(d).Line(lineID)
		if err != nil {
			return nil, err
		}
		if productID == "" {
			productID = line.ProductID
			if zoneID == "" {
				zoneID = line.ZoneID
			}
		}
	}

	idx := s.index(d)
	n := namesOf(d.Lots)
	opts := &Options{
		Products: choices(selection.AvailableProducts(idx, d.Lines, lineID), n.products),
		Zones:    []Choice{},
		Expiries: []domain.Date{},
	}
	if productID == "" {
		return opts, nil
	}

	opts.Zones = choices(selection.AvailableZones(idx, d.Lines, productID, lineID), n.zones)
	if zoneID == "" {
		return opts, nil
	}

	opts.Expiries = selection.AvailableExpiries(idx, d.Lines, productID, zoneID, lineID)
	if lineID != "" {
		if line, _ := s.set(d).Line(lineID); line.References() && line.ProductID == productID && line.ZoneID == zoneID {
			qty := selection.AvailableQuantity(idx, d.Lines, line.Key(), lineID)
			opts.AvailableQuantity = &qty
		}
	}
	return opts, nil
}

// Next moves the wizard forward, or to target when set
func (s *ExportService) Next(ctx context.Context, actor Actor, id string, target wizard.Step) (*DraftView, error) {
	var gateErr error
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		m, err := wizard.New(d.Step)
		if err != nil {
			return err
		}
		g := gates{draft: d, idx: s.index(d)}
		if target == "" {
			_, gateErr = m.Next(g)
		} else {
			_, gateErr = m.GoTo(target, g)
		}
		if gateErr != nil && m.Step() == d.Step {
			return gateErr
		}
		d.Step = m.Step()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(d), gateErr
}

// Back moves the wizard one step back. Draft data is never touched.
func (s *ExportService) Back(ctx context.Context, actor Actor, id string) (*DraftView, error) {
	d, err := s.mutate(ctx, actor, id, func(d *repository.Draft) error {
		m, err := wizard.New(d.Step)
		if err != nil {
			return err
		}
		if _, err := m.Back(); err != nil {
			return err
		}
		d.Step = m.Step()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(d), nil
}

type gates struct {
	draft *repository.Draft
	idx   *lots.Index
}

func (g gates) CheckHeader() error {
	return wizardHeader(g.draft)
}

func (g gates) CheckLines() error {
	if err := selection.RequireLines(g.draft.Lines); err != nil {
		return err
	}
	return selection.Validate(g.idx, g.draft.Lines).Err()
}

func wizardHeader(d *repository.Draft) error {
	h := d.Header
	h.WarehouseIDFrom = d.WarehouseID
	return wizard.ValidateHeader(h)
}

func notSubmitted(d *repository.Draft) error {
	if d.Step == wizard.StepSubmitted {
		return wizard.ErrSubmitted
	}
	return nil
}
