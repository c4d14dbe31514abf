package domain

import (
	"strings"

	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// Machine-readable error codes for the transition engine. Reported verbatim
// to callers; stale_lead is the only one worth retrying after a re-read.
const (
	CodeInvalidTransition  = "invalid_transition"
	CodeMissingPayload     = "missing_payload"
	CodeUnauthorizedActor  = "unauthorized_actor"
	CodeAssigneeNotInStage = "assignee_not_in_stage"
	CodeStaleLead          = "stale_lead"
	CodeNotFound           = "not_found"
)

// LeadState is the snapshot of a lead the transition engine decides against.
type LeadState struct {
	Stage    Stage
	Status   Status
	FollowUp *FollowUp
	Assignee *uuid.UUID
}

// CheckInvariants returns a non-empty reason string when the state violates
// a structural invariant. A valid lead always returns "".
func (s LeadState) CheckInvariants() string {
	if s.Status == StatusFollowUp && s.FollowUp == nil {
		return "status follow_up requires a follow-up schedule"
	}
	if s.Status != StatusFollowUp && s.FollowUp != nil {
		return "follow-up schedule requires status follow_up"
	}
	if !IsKnownStage(string(s.Stage)) {
		return "unknown stage"
	}
	return ""
}

// Outcome describes the single atomic write an accepted transition produces:
// the lead's next state, the activity log entry, and (when the follow-up
// schedule changed) the follow-up history entry.
type Outcome struct {
	ChangeType  ChangeType
	NewStage    Stage
	NewStatus   Status
	NewFollowUp *FollowUp
	NewAssignee *uuid.UUID
	Reason      string

	// RecordFollowupHistory is set when the transition entered, left, or
	// rescheduled follow_up; PreviousFollowUp carries the prior schedule.
	RecordFollowupHistory bool
	PreviousFollowUp      *FollowUp
}

func invalidTransition(message string) error {
	return apperr.Conflict(message).WithCode(CodeInvalidTransition)
}

func missingReason(message string) error {
	return apperr.Validation(message).WithCode(CodeMissingPayload)
}

// DecideScheduleFollowUp validates new → follow_up with an already-parsed
// follow-up payload.
func DecideScheduleFollowUp(state LeadState, followUp FollowUp) (Outcome, error) {
	if state.Status != StatusNew {
		return Outcome{}, invalidTransition("follow-up can only be scheduled for a lead with status new")
	}

	fu := followUp
	return Outcome{
		ChangeType:            ChangeStatusChanged,
		NewStage:              state.Stage,
		NewStatus:             StatusFollowUp,
		NewFollowUp:           &fu,
		NewAssignee:           state.Assignee,
		Reason:                fu.Reason,
		RecordFollowupHistory: true,
		PreviousFollowUp:      nil,
	}, nil
}

// DecideRescheduleFollowUp validates follow_up → follow_up. The prior
// schedule is preserved in the follow-up history.
func DecideRescheduleFollowUp(state LeadState, followUp FollowUp) (Outcome, error) {
	if state.Status != StatusFollowUp {
		return Outcome{}, invalidTransition("only a lead in follow_up can be rescheduled")
	}

	fu := followUp
	return Outcome{
		ChangeType:            ChangeStatusChanged,
		NewStage:              state.Stage,
		NewStatus:             StatusFollowUp,
		NewFollowUp:           &fu,
		NewAssignee:           state.Assignee,
		Reason:                fu.Reason,
		RecordFollowupHistory: true,
		PreviousFollowUp:      state.FollowUp,
	}, nil
}

// DecideRevert validates the "back" transition to status new. From follow_up
// it is an ordinary transition; from lost it requires the privileged flag
// (head roles only, enforced by policy before this is called).
func DecideRevert(state LeadState, reason string, privileged bool) (Outcome, error) {
	if strings.TrimSpace(reason) == "" {
		return Outcome{}, missingReason("revert reason is required")
	}

	switch state.Status {
	case StatusFollowUp:
		return Outcome{
			ChangeType:            ChangeStatusChanged,
			NewStage:              state.Stage,
			NewStatus:             StatusNew,
			NewFollowUp:           nil,
			NewAssignee:           state.Assignee,
			Reason:                strings.TrimSpace(reason),
			RecordFollowupHistory: true,
			PreviousFollowUp:      state.FollowUp,
		}, nil
	case StatusLost:
		if !privileged {
			return Outcome{}, invalidTransition("a lost lead can only be reverted by a head role")
		}
		return Outcome{
			ChangeType:  ChangeStatusChanged,
			NewStage:    state.Stage,
			NewStatus:   StatusNew,
			NewFollowUp: nil,
			NewAssignee: state.Assignee,
			Reason:      strings.TrimSpace(reason),
		}, nil
	default:
		return Outcome{}, invalidTransition("only a lead in follow_up or lost can be reverted")
	}
}

// DecideMarkLost validates new → lost. No payload is required.
func DecideMarkLost(state LeadState) (Outcome, error) {
	if state.Status != StatusNew {
		return Outcome{}, invalidTransition("only a lead with status new can be marked lost")
	}

	return Outcome{
		ChangeType:  ChangeStatusChanged,
		NewStage:    state.Stage,
		NewStatus:   StatusLost,
		NewFollowUp: nil,
		NewAssignee: state.Assignee,
	}, nil
}

// DecideStageChange validates the handoff of a lead to another department.
// Ordinary actors may only move along declared pipeline edges; the
// cross-department head override may target any stage. The lead's status
// resets to new and the assignee clears; an active follow-up is closed with
// a history entry so the cadence trail stays complete.
func DecideStageChange(state LeadState, target Stage, reason string, override bool) (Outcome, error) {
	if strings.TrimSpace(reason) == "" {
		return Outcome{}, missingReason("stage change reason is required")
	}
	if !IsKnownStage(string(target)) {
		return Outcome{}, invalidTransition("unknown target stage")
	}
	if target == state.Stage {
		return Outcome{}, invalidTransition("lead already belongs to the target stage")
	}
	if state.Status == StatusLost {
		return Outcome{}, invalidTransition("a lost lead cannot change stage; revert it first")
	}
	if !override && !IsPipelineEdge(state.Stage, target) {
		return Outcome{}, invalidTransition("no pipeline edge from " + string(state.Stage) + " to " + string(target))
	}

	out := Outcome{
		ChangeType:  ChangeStageChanged,
		NewStage:    target,
		NewStatus:   StatusNew,
		NewFollowUp: nil,
		NewAssignee: nil,
		Reason:      strings.TrimSpace(reason),
	}
	if state.Status == StatusFollowUp {
		out.RecordFollowupHistory = true
		out.PreviousFollowUp = state.FollowUp
	}
	return out, nil
}

// DecideAssign validates an assignment change within the current stage. The
// roster membership of the target employee is checked by the engine against
// the employee registry; this only validates the state machine axis.
func DecideAssign(state LeadState, target uuid.UUID) (Outcome, error) {
	if target == uuid.Nil {
		return Outcome{}, missingReason("target employee is required")
	}

	t := target
	return Outcome{
		ChangeType:  ChangeAssigneeChanged,
		NewStage:    state.Stage,
		NewStatus:   state.Status,
		NewFollowUp: state.FollowUp,
		NewAssignee: &t,
	}, nil
}
