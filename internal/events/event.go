// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Workflow Events
// =============================================================================

// LeadCreated is published when a new lead enters the pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	Stage      string     `json:"stage"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published whenever a lead gains an assignee, either by a
// teammate reassignment or by an explicit re-assignment during a handoff.
// The notification module emails the new assignee; delivery is best-effort
// and never blocks the transition.
type LeadAssigned struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Stage      string    `json:"stage"`
	AssigneeID uuid.UUID `json:"assigneeId"`
	AssignedBy uuid.UUID `json:"assignedBy"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadStageChanged is published when a lead is handed to another department.
type LeadStageChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	OldStage string    `json:"oldStage"`
	NewStage string    `json:"newStage"`
	Reason   string    `json:"reason"`
	ActorID  uuid.UUID `json:"actorId"`
}

func (e LeadStageChanged) EventName() string { return "leads.lead.stage_changed" }

// FollowUpScheduled is published when a follow-up is scheduled or rescheduled.
type FollowUpScheduled struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	Stage      string     `json:"stage"`
	Reason     string     `json:"reason"`
	Date       string     `json:"date"`
	Time       string     `json:"time"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
}

func (e FollowUpScheduled) EventName() string { return "leads.followup.scheduled" }
