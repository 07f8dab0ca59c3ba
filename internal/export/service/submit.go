package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/reconcile"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/wizard"
)

// Phase is one remote step of a submission
type Phase string

const (
	PhaseHeader Phase = "header"
	PhaseDelete Phase = "delete"
	PhaseUpdate Phase = "update"
	PhaseCreate Phase = "create"

	// PhaseDetails is the detail creation of a new export
	PhaseDetails = PhaseCreate
)

// SubmitError reports which remote step failed. ExportID is set once the
// header exists on the server, so a failure after it leaves an incomplete
// export behind. Nothing is rolled back.
type SubmitError struct {
	Phase    Phase
	ExportID string
	Err      error
}

func (e *SubmitError) Error() string {
	if e.ExportID != "" {
		return fmt.Sprintf("submit of export %s failed in %s phase: %v", e.ExportID, e.Phase, e.Err)
	}
	return fmt.Sprintf("submit failed in %s phase: %v", e.Phase, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Incomplete reports whether the export was left partially written
func (e *SubmitError) Incomplete() bool {
	return e.ExportID != "" && e.Phase != PhaseHeader
}

// SubmitResult summarizes what a successful submit sent
type SubmitResult struct {
	ExportID      string `json:"export_id"`
	HeaderUpdated bool   `json:"header_updated,omitempty"`
	Created       int    `json:"created"`
	Updated       int    `json:"updated"`
	Deleted       int    `json:"deleted"`
}

// Preview is the reconciliation plan of a draft without sending anything
type Preview struct {
	HeaderChanged bool              `json:"header_changed"`
	Diff          domain.DiffResult `json:"diff"`
}

// Submit sends a draft to the warehouse API. New exports are created header
// first; edit sessions are reconciled against their baseline. Local
// validation errors are returned before any remote call. The draft is
// removed on success and kept for a retry otherwise.
func (s *ExportService) Submit(ctx context.Context, actor Actor, id string) (*SubmitResult, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	d, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	m, err := wizard.New(d.Step)
	if err != nil {
		return nil, err
	}
	if err := m.Submittable(gates{draft: d, idx: s.index(d)}); err != nil {
		return nil, err
	}

	if d.IsEdit() {
		return s.saveEdit(ctx, actor, d)
	}
	return s.submitNew(ctx, actor, d)
}

func (s *ExportService) submitNew(ctx context.Context, actor Actor, d *repository.Draft) (*SubmitResult, error) {
	log := s.logger.WithDraftID(d.ID)
	header := d.Header
	header.WarehouseIDFrom = d.WarehouseID
	header = header.Normalize()

	// A draft that already carries an export id failed after its header was
	// written; only the details are sent again.
	if d.ExportID == "" {
		exportID, err := s.api.CreateExport(ctx, actor.Credentials, header)
		if err != nil {
			log.Warn().Err(err).Msg("export header creation failed")
			s.record(ctx, submission(d, repository.SubmissionKindCreate, repository.OutcomeFailed, PhaseHeader, err))
			return nil, &SubmitError{Phase: PhaseHeader, Err: err}
		}
		d.ExportID = exportID
	}

	if err := s.api.CreateExportDetails(ctx, actor.Credentials, d.ExportID, d.Lines); err != nil {
		log.Error().Err(err).Str("export_id", d.ExportID).Msg("export details creation failed, header left without lines")
		s.record(ctx, submission(d, repository.SubmissionKindCreate, repository.OutcomeIncomplete, PhaseDetails, err))
		s.events.PublishSubmissionIncomplete(ctx, d, d.ExportID, string(PhaseDetails), err)
		s.keep(ctx, d)
		return nil, &SubmitError{Phase: PhaseDetails, ExportID: d.ExportID, Err: err}
	}

	sub := submission(d, repository.SubmissionKindCreate, repository.OutcomeSucceeded, "", nil)
	sub.CreatedCount = len(d.Lines)
	s.record(ctx, sub)
	s.events.PublishSubmitted(ctx, d, d.ExportID)
	s.finish(ctx, d)

	log.Info().Str("export_id", d.ExportID).Int("lines", len(d.Lines)).Msg("export submitted")
	return &SubmitResult{ExportID: d.ExportID, Created: len(d.Lines)}, nil
}

// saveEdit sends header, deletions, updates and creations in that order.
// Deletions go first so stock they free is visible to the server when the
// remaining lines are checked. After each successful step the baseline
// advances, so a retry only sends what is still missing.
func (s *ExportService) saveEdit(ctx context.Context, actor Actor, d *repository.Draft) (*SubmitResult, error) {
	log := s.logger.WithDraftID(d.ID).WithExportID(d.ExportID)

	diff, err := reconcile.Plan(s.index(d), d.Baseline, d.Lines)
	if err != nil {
		return nil, err
	}
	changed := headerChanged(d)
	res := &SubmitResult{ExportID: d.ExportID}

	if !changed && diff.Empty() {
		s.finish(ctx, d)
		log.Debug().Msg("export edit saved without changes")
		return res, nil
	}

	progressed := false
	fail := func(phase Phase, err error) (*SubmitResult, error) {
		outcome := repository.OutcomeFailed
		if progressed {
			outcome = repository.OutcomeIncomplete
			s.events.PublishSubmissionIncomplete(ctx, d, d.ExportID, string(phase), err)
		}
		log.Error().Err(err).Str("phase", string(phase)).Bool("partial", progressed).Msg("export edit save failed")

		sub := submission(d, repository.SubmissionKindEdit, outcome, phase, err)
		sub.CreatedCount, sub.UpdatedCount, sub.DeletedCount = res.Created, res.Updated, res.Deleted
		s.record(ctx, sub)
		s.keep(ctx, d)
		return nil, &SubmitError{Phase: phase, ExportID: d.ExportID, Err: err}
	}

	if changed {
		header := d.Header
		header.WarehouseIDFrom = d.WarehouseID
		header = header.Normalize()
		if err := s.api.UpdateExport(ctx, actor.Credentials, d.ExportID, header); err != nil {
			return fail(PhaseHeader, err)
		}
		d.BaselineHeader = &header
		res.HeaderUpdated = true
		progressed = true
	}

	if len(diff.ToDelete) > 0 {
		if err := s.api.DeleteExportDetails(ctx, actor.Credentials, diff.ToDelete); err != nil {
			return fail(PhaseDelete, err)
		}
		d.Baseline = without(d.Baseline, diff.ToDelete)
		res.Deleted = len(diff.ToDelete)
		progressed = true
	}

	if len(diff.ToUpdate) > 0 {
		if err := s.api.UpdateExportDetails(ctx, actor.Credentials, diff.ToUpdate); err != nil {
			return fail(PhaseUpdate, err)
		}
		applyUpdates(d, diff.ToUpdate)
		res.Updated = len(diff.ToUpdate)
		progressed = true
	}

	if len(diff.ToCreate) > 0 {
		if err := s.api.CreateExportDetails(ctx, actor.Credentials, d.ExportID, diff.ToCreate); err != nil {
			return fail(PhaseCreate, err)
		}
		res.Created = len(diff.ToCreate)
	}

	sub := submission(d, repository.SubmissionKindEdit, repository.OutcomeSucceeded, "", nil)
	sub.CreatedCount, sub.UpdatedCount, sub.DeletedCount = res.Created, res.Updated, res.Deleted
	s.record(ctx, sub)
	s.events.PublishUpdated(ctx, d, res.HeaderUpdated, diff)
	s.finish(ctx, d)

	log.Info().
		Bool("header_updated", res.HeaderUpdated).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Msg("export edit saved")
	return res, nil
}

// Preview returns what Submit would send. Lines of a new export are all
// created.
func (s *ExportService) Preview(ctx context.Context, actor Actor, id string) (*Preview, error) {
	d, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !d.IsEdit() {
		return &Preview{HeaderChanged: true, Diff: reconcile.Diff(nil, d.Lines)}, nil
	}
	diff, err := reconcile.Plan(s.index(d), d.Baseline, d.Lines)
	if err != nil {
		return nil, err
	}
	return &Preview{HeaderChanged: headerChanged(d), Diff: diff}, nil
}

// DeleteExport removes a saved export: its details first, then the header.
// A failed detail deletion leaves the header untouched.
func (s *ExportService) DeleteExport(ctx context.Context, actor Actor, exportID string) error {
	header, err := s.api.GetExport(ctx, actor.Credentials, exportID)
	if err != nil {
		return fmt.Errorf("failed to load export: %w", err)
	}
	warehouseID := header.WarehouseIDFrom
	if warehouseID == "" {
		warehouseID = actor.WarehouseID
	}
	if err := s.checkWarehouse(actor, warehouseID); err != nil {
		return ErrForeignExport
	}

	saved, err := s.api.FetchExportDetails(ctx, actor.Credentials, exportID)
	if err != nil {
		return fmt.Errorf("failed to load export details: %w", err)
	}
	ids := make([]string, 0, len(saved))
	for _, l := range saved {
		ids = append(ids, l.LocalID)
	}

	sub := &repository.Submission{
		Kind:        repository.SubmissionKindDelete,
		ExportID:    &exportID,
		WarehouseID: warehouseID,
		UserID:      actor.UserID,
	}
	log := s.logger.WithExportID(exportID)

	if len(ids) > 0 {
		if err := s.api.DeleteExportDetails(ctx, actor.Credentials, ids); err != nil {
			log.Error().Err(err).Msg("export detail deletion failed")
			sub.Outcome = repository.OutcomeFailed
			sub.FailedPhase, sub.ErrorMessage = failure(PhaseDelete, err)
			s.record(ctx, sub)
			return &SubmitError{Phase: PhaseDelete, ExportID: exportID, Err: err}
		}
		sub.DeletedCount = len(ids)
	}

	if err := s.api.DeleteExport(ctx, actor.Credentials, exportID); err != nil {
		log.Error().Err(err).Int("details_deleted", len(ids)).Msg("export header deletion failed")
		sub.Outcome = repository.OutcomeFailed
		if len(ids) > 0 {
			sub.Outcome = repository.OutcomeIncomplete
		}
		sub.FailedPhase, sub.ErrorMessage = failure(PhaseHeader, err)
		s.record(ctx, sub)
		return &SubmitError{Phase: PhaseHeader, ExportID: exportID, Err: err}
	}

	sub.Outcome = repository.OutcomeSucceeded
	s.record(ctx, sub)
	s.events.PublishDeleted(ctx, exportID, warehouseID, actor.UserID, len(ids))

	log.Info().Int("details", len(ids)).Msg("export deleted")
	return nil
}

// keep saves a draft after a failed submit so the user can retry
func (s *ExportService) keep(ctx context.Context, d *repository.Draft) {
	d.UpdatedAt = s.now().UTC()
	if err := s.drafts.Save(ctx, d); err != nil {
		s.logger.Error().Err(err).Str("draft_id", d.ID).Msg("failed to keep draft after failed submit")
	}
}

// finish drops a submitted draft
func (s *ExportService) finish(ctx context.Context, d *repository.Draft) {
	m, _ := wizard.New(d.Step)
	if m != nil {
		m.Complete()
		d.Step = m.Step()
	}
	if err := s.drafts.Delete(ctx, d.ID); err != nil && !errors.Is(err, repository.ErrDraftNotFound) {
		s.logger.Error().Err(err).Str("draft_id", d.ID).Msg("failed to remove submitted draft")
	}
}

func submission(d *repository.Draft, kind repository.SubmissionKind, outcome repository.Outcome, phase Phase, err error) *repository.Submission {
	sub := &repository.Submission{
		DraftID:     d.ID,
		Kind:        kind,
		WarehouseID: d.WarehouseID,
		UserID:      d.UserID,
		Outcome:     outcome,
	}
	if d.ExportID != "" {
		exportID := d.ExportID
		sub.ExportID = &exportID
	}
	if err != nil {
		sub.FailedPhase, sub.ErrorMessage = failure(phase, err)
	}
	return sub
}

func failure(phase Phase, err error) (*string, *string) {
	p := string(phase)
	msg := err.Error()
	return &p, &msg
}

func without(lines []domain.SelectionLine, ids []string) []domain.SelectionLine {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make([]domain.SelectionLine, 0, len(lines))
	for _, l := range lines {
		if !drop[l.LocalID] {
			out = append(out, l)
		}
	}
	return out
}

func applyUpdates(d *repository.Draft, updates []domain.QuantityUpdate) {
	qty := make(map[string]int, len(updates))
	for _, u := range updates {
		qty[u.ID] = u.Quantity
	}
	for i := range d.Baseline {
		if q, ok := qty[d.Baseline[i].LocalID]; ok {
			d.Baseline[i].Quantity = q
		}
	}
	for i := range d.Lines {
		if _, ok := qty[d.Lines[i].LocalID]; ok {
			d.Lines[i].IsDirty = false
		}
	}
}
