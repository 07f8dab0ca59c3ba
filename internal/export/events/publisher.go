package events

import (
	"context"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/selection"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

// Sink publishes one event payload under a routing key
type Sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ExportEventPublisher publishes export lifecycle events.
// A nil publisher drops every event.
type ExportEventPublisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewExportEventPublisher creates a publisher on the given exchange
func NewExportEventPublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*ExportEventPublisher, error) {
	if exchange == "" {
		exchange = messaging.ExchangeExportEvents
	}
	publisher, err := messaging.NewPublisher(rmq, exchange, "export-service", log)
	if err != nil {
		return nil, err
	}
	return NewWithSink(publisher, log), nil
}

// NewWithSink wraps any Sink, e.g. a test recorder
func NewWithSink(sink Sink, log *logger.Logger) *ExportEventPublisher {
	return &ExportEventPublisher{sink: sink, logger: log}
}

// PublishSubmitted publishes an export submitted event
func (p *ExportEventPublisher) PublishSubmitted(ctx context.Context, d *repository.Draft, exportID string) {
	if p == nil {
		return
	}
	data := messaging.ExportSubmittedEvent{
		ExportID:    exportID,
		DraftID:     d.ID,
		WarehouseID: d.WarehouseID,
		Type:        string(d.Header.Type),
		LineCount:   len(d.Lines),
		Quantity:    selection.TotalQuantity(d.Lines),
		PerformedBy: d.UserID,
	}
	p.publish(ctx, messaging.EventExportSubmitted, exportID, data)
}

// PublishSubmissionIncomplete reports a header left without all of its lines
func (p *ExportEventPublisher) PublishSubmissionIncomplete(ctx context.Context, d *repository.Draft, exportID, phase string, cause error) {
	if p == nil {
		return
	}
	data := messaging.ExportSubmissionIncompleteEvent{
		ExportID:    exportID,
		DraftID:     d.ID,
		WarehouseID: d.WarehouseID,
		FailedPhase: phase,
		PerformedBy: d.UserID,
	}
	if cause != nil {
		data.Error = cause.Error()
	}
	p.publish(ctx, messaging.EventExportSubmissionIncomplete, exportID, data)
}

// PublishUpdated publishes an export updated event
func (p *ExportEventPublisher) PublishUpdated(ctx context.Context, d *repository.Draft, headerChanged bool, diff domain.DiffResult) {
	if p == nil {
		return
	}
	data := messaging.ExportUpdatedEvent{
		ExportID:      d.ExportID,
		WarehouseID:   d.WarehouseID,
		HeaderChanged: headerChanged,
		Created:       len(diff.ToCreate),
		Updated:       len(diff.ToUpdate),
		Deleted:       len(diff.ToDelete),
		PerformedBy:   d.UserID,
	}
	p.publish(ctx, messaging.EventExportUpdated, d.ExportID, data)
}

// PublishDeleted publishes an export deleted event
func (p *ExportEventPublisher) PublishDeleted(ctx context.Context, exportID, warehouseID, userID string, details int) {
	if p == nil {
		return
	}
	data := messaging.ExportDeletedEvent{
		ExportID:     exportID,
		WarehouseID:  warehouseID,
		DetailsCount: details,
		PerformedBy:  userID,
	}
	p.publish(ctx, messaging.EventExportDeleted, exportID, data)
}

func (p *ExportEventPublisher) publish(ctx context.Context, eventType, exportID string, data interface{}) {
	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("export_id", exportID).Str("event_type", eventType).Msg("failed to publish export event")
	}
}
