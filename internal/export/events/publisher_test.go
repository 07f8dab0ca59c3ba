package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
	"github.com/wareflow/wareflow-backend/internal/export/events"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
	"github.com/wareflow/wareflow-backend/pkg/testutil"
)

func draft() *repository.Draft {
	return &repository.Draft{
		ID:          "d1",
		ExportID:    "9",
		WarehouseID: "w1",
		UserID:      "u1",
		Header:      domain.ExportHeader{Type: domain.ExportTypeCustomer},
		Lines: []domain.SelectionLine{
			{LocalID: "a", Quantity: 3},
			{LocalID: "b", Quantity: 4},
		},
	}
}

func TestPublishSubmitted(t *testing.T) {
	rec := testutil.NewMockPublisher()
	p := events.NewWithSink(rec, logger.Nop())

	p.PublishSubmitted(context.Background(), draft(), "42")

	rec.AssertEventPublished(t, messaging.EventExportSubmitted)
	data, ok := rec.PublishedEvents[0].Payload.(messaging.ExportSubmittedEvent)
	require.True(t, ok)
	assert.Equal(t, "42", data.ExportID)
	assert.Equal(t, "CUSTOMER", data.Type)
	assert.Equal(t, 2, data.LineCount)
	assert.Equal(t, 7, data.Quantity)
	assert.Equal(t, "u1", data.PerformedBy)
}

func TestPublishSubmissionIncomplete(t *testing.T) {
	rec := testutil.NewMockPublisher()
	p := events.NewWithSink(rec, logger.Nop())

	p.PublishSubmissionIncomplete(context.Background(), draft(), "42", "create", errors.New("boom"))

	data := rec.PublishedEvents[0].Payload.(messaging.ExportSubmissionIncompleteEvent)
	assert.Equal(t, "create", data.FailedPhase)
	assert.Equal(t, "boom", data.Error)
}

func TestPublishUpdatedAndDeleted(t *testing.T) {
	rec := testutil.NewMockPublisher()
	p := events.NewWithSink(rec, logger.Nop())
	ctx := context.Background()

	p.PublishUpdated(ctx, draft(), true, domain.DiffResult{ToDelete: []string{"x"}, ToUpdate: []domain.QuantityUpdate{{ID: "y", Quantity: 1}}})
	p.PublishDeleted(ctx, "9", "w1", "u1", 3)

	require.Len(t, rec.PublishedEvents, 2)
	updated := rec.PublishedEvents[0].Payload.(messaging.ExportUpdatedEvent)
	assert.Equal(t, "9", updated.ExportID)
	assert.True(t, updated.HeaderChanged)
	assert.Equal(t, 1, updated.Deleted)
	assert.Equal(t, 1, updated.Updated)
	assert.Zero(t, updated.Created)

	deleted := rec.PublishedEvents[1].Payload.(messaging.ExportDeletedEvent)
	assert.Equal(t, 3, deleted.DetailsCount)
}

func TestNilPublisherIsSilent(t *testing.T) {
	var p *events.ExportEventPublisher
	assert.NotPanics(t, func() {
		p.PublishSubmitted(context.Background(), draft(), "1")
		p.PublishDeleted(context.Background(), "1", "w1", "u1", 0)
	})
}

type failingSink struct{}

func (failingSink) Publish(context.Context, string, interface{}) error {
	return errors.New("channel closed")
}

func TestPublishErrorsAreLoggedNotReturned(t *testing.T) {
	p := events.NewWithSink(failingSink{}, logger.Nop())
	assert.NotPanics(t, func() {
		p.PublishDeleted(context.Background(), "1", "w1", "u1", 0)
	})
}
