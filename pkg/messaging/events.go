package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventExportSubmitted            = "export.submitted"
	EventExportSubmissionIncomplete = "export.submission.incomplete"
	EventExportUpdated              = "export.updated"
	EventExportDeleted              = "export.deleted"
)

// ExchangeExportEvents is the default exchange for export lifecycle events
const ExchangeExportEvents = "wareflow.exports"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData decodes the event payload into v
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ExportSubmittedEvent is emitted when a new export and all of its lines were persisted
type ExportSubmittedEvent struct {
	ExportID    string `json:"export_id"`
	DraftID     string `json:"draft_id"`
	WarehouseID string `json:"warehouse_id"`
	Type        string `json:"type"`
	LineCount   int    `json:"line_count"`
	Quantity    int    `json:"quantity"`
	PerformedBy string `json:"performed_by"`
}

// ExportSubmissionIncompleteEvent is emitted when the header was persisted but a
// later phase failed, leaving the export with missing or partial lines
type ExportSubmissionIncompleteEvent struct {
	ExportID    string `json:"export_id"`
	DraftID     string `json:"draft_id"`
	WarehouseID string `json:"warehouse_id"`
	FailedPhase string `json:"failed_phase"`
	Error       string `json:"error"`
	PerformedBy string `json:"performed_by"`
}

// ExportUpdatedEvent is emitted after an edit session was saved
type ExportUpdatedEvent struct {
	ExportID      string `json:"export_id"`
	WarehouseID   string `json:"warehouse_id"`
	HeaderChanged bool   `json:"header_changed"`
	Created       int    `json:"created"`
	Updated       int    `json:"updated"`
	Deleted       int    `json:"deleted"`
	PerformedBy   string `json:"performed_by"`
}

// ExportDeletedEvent is emitted after an export and its lines were removed
type ExportDeletedEvent struct {
	ExportID     string `json:"export_id"`
	WarehouseID  string `json:"warehouse_id"`
	DetailsCount int    `json:"details_count"`
	PerformedBy  string `json:"performed_by"`
}
