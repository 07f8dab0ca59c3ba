package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// SubmissionKind is the remote operation a journal entry records
type SubmissionKind string

const (
	SubmissionKindCreate SubmissionKind = "create"
	SubmissionKindEdit   SubmissionKind = "edit"
	SubmissionKindDelete SubmissionKind = "delete"
)

// Outcome of a submission attempt
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeIncomplete means the header was written but later calls failed
	OutcomeIncomplete Outcome = "incomplete"
)

// Submission is one journal entry
type Submission struct {
	ID           string         `db:"id" json:"id"`
	DraftID      string         `db:"draft_id" json:"draft_id"`
	Kind         SubmissionKind `db:"kind" json:"kind"`
	ExportID     *string        `db:"export_id" json:"export_id,omitempty"`
	WarehouseID  string         `db:"warehouse_id" json:"warehouse_id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Outcome      Outcome        `db:"outcome" json:"outcome"`
	FailedPhase  *string        `db:"failed_phase" json:"failed_phase,omitempty"`
	CreatedCount int            `db:"created_count" json:"created_count"`
	UpdatedCount int            `db:"updated_count" json:"updated_count"`
	DeletedCount int            `db:"deleted_count" json:"deleted_count"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// SubmissionRepository persists the submission journal
type SubmissionRepository struct {
	db *database.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Record inserts a journal entry
func (r *SubmissionRepository) Record(ctx context.Context, s *Submission) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO export_submissions (
			id, draft_id, kind, export_id, warehouse_id, user_id, outcome,
			failed_phase, created_count, updated_count, deleted_count, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.DraftID, s.Kind, s.ExportID, s.WarehouseID, s.UserID, s.Outcome,
		s.FailedPhase, s.CreatedCount, s.UpdatedCount, s.DeletedCount, s.ErrorMessage,
	).Scan(&s.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

const submissionColumns = `
	id, draft_id, kind, export_id, warehouse_id, user_id, outcome,
	failed_phase, created_count, updated_count, deleted_count, error_message, created_at
`

// ListIncomplete returns the newest submissions of a warehouse whose header
// was persisted while later detail calls failed.
func (r *SubmissionRepository) ListIncomplete(ctx context.Context, warehouseID string, limit int) ([]Submission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT` + submissionColumns + `
		FROM export_submissions
		WHERE warehouse_id = $1 AND outcome = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	var out []Submission
	if err := r.db.SelectContext(ctx, &out, query, warehouseID, OutcomeIncomplete, limit); err != nil {
		return nil, fmt.Errorf("failed to list incomplete submissions: %w", err)
	}
	return out, nil
}

// ListByExport returns every attempt against one export, oldest first
func (r *SubmissionRepository) ListByExport(ctx context.Context, exportID string) ([]Submission, error) {
	query := `SELECT` + submissionColumns + `
		FROM export_submissions
		WHERE export_id = $1
		ORDER BY created_at ASC
	`
	var out []Submission
	err := r.db.SelectContext(ctx, &out, query, exportID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return out, nil
}
