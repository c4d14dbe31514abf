// Package notification turns domain events into durable notification work.
// It subscribes to the event bus and writes outbox rows; the worker binary
// owns actual delivery. Domain modules never talk to SMTP directly.
package notification

import (
	"context"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/notification/outbox"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxWriter persists notification work items.
type OutboxWriter interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// LeadAssignedPayload is the outbox payload for assignment notifications.
// Stage is captured at assignment time so the email reflects the handoff
// even if the lead moves on before delivery.
type LeadAssignedPayload struct {
	Stage      string    `json:"stage"`
	AssignedBy uuid.UUID `json:"assignedBy"`
}

type Module struct {
	outbox OutboxWriter
	log    *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{
		outbox: outbox.New(pool),
		log:    log,
	}
}

// NewWithOutbox is used by tests to inject a fake outbox writer.
func NewWithOutbox(writer OutboxWriter, log *logger.Logger) *Module {
	return &Module{outbox: writer, log: log}
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.handleLeadAssigned))
}

// handleLeadAssigned records an outbox row for the new assignee. Delivery is
// best-effort: a failed insert is logged and never fails the transition that
// published the event.
func (m *Module) handleLeadAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadAssigned)
	if !ok {
		return nil
	}

	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		LeadID:      e.LeadID,
		RecipientID: e.AssigneeID,
		Kind:        outbox.KindLeadAssigned,
		Payload: LeadAssignedPayload{
			Stage:      e.Stage,
			AssignedBy: e.AssignedBy,
		},
		RunAt: time.Now().UTC(),
	})
	if err != nil {
		m.log.NotificationError("outbox insert failed", err, "leadId", e.LeadID, "assigneeId", e.AssigneeID)
	}
	return nil
}
