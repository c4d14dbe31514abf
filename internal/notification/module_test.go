package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/notification/outbox"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeWriter struct {
	inserted  []outbox.InsertParams
	insertErr error
}

func (f *fakeWriter) Insert(_ context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.inserted = append(f.inserted, p)
	return uuid.New(), nil
}

func TestLeadAssignedWritesOutboxRow(t *testing.T) {
	writer := &fakeWriter{}
	m := NewWithOutbox(writer, logger.New("development"))

	event := events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		Stage:      "field",
		AssigneeID: uuid.New(),
		AssignedBy: uuid.New(),
	}
	if err := m.handleLeadAssigned(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(writer.inserted) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(writer.inserted))
	}
	row := writer.inserted[0]
	if row.Kind != outbox.KindLeadAssigned {
		t.Fatalf("unexpected kind %s", row.Kind)
	}
	if row.LeadID != event.LeadID || row.RecipientID != event.AssigneeID {
		t.Fatalf("unexpected addressing %+v", row)
	}

	raw, err := json.Marshal(row.Payload)
	if err != nil {
		t.Fatalf("payload not marshalable: %v", err)
	}
	var payload LeadAssignedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("payload not a LeadAssignedPayload: %v", err)
	}
	if payload.Stage != "field" || payload.AssignedBy != event.AssignedBy {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestLeadAssignedIgnoresOtherEventTypes(t *testing.T) {
	writer := &fakeWriter{}
	m := NewWithOutbox(writer, logger.New("development"))

	event := events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		OldStage:  "tele",
		NewStage:  "field",
	}
	if err := m.handleLeadAssigned(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.inserted) != 0 {
		t.Fatal("mismatched event type must not write an outbox row")
	}
}

func TestLeadAssignedInsertFailureDoesNotPropagate(t *testing.T) {
	writer := &fakeWriter{insertErr: errors.New("connection refused")}
	m := NewWithOutbox(writer, logger.New("development"))

	event := events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     uuid.New(),
		Stage:      "tele",
		AssigneeID: uuid.New(),
		AssignedBy: uuid.New(),
	}
	if err := m.handleLeadAssigned(context.Background(), event); err != nil {
		t.Fatalf("insert failure must not fail the handler, got %v", err)
	}
}
