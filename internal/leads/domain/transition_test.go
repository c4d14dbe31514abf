package domain

import (
	"testing"

	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

func followUpFixture() FollowUp {
	return FollowUp{Reason: "call back after demo", Date: "2025-07-01", Time: "11:00"}
}

func newState(status Status) LeadState {
	state := LeadState{Stage: StageTele, Status: status}
	if status == StatusFollowUp {
		fu := followUpFixture()
		state.FollowUp = &fu
	}
	return state
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.GetCode(err); got != code {
		t.Fatalf("expected code %s, got %s (%v)", code, got, err)
	}
}

func TestScheduleFollowUpOnlyFromNew(t *testing.T) {
	for _, status := range []Status{StatusFollowUp, StatusLost} {
		_, err := DecideScheduleFollowUp(newState(status), followUpFixture())
		wantCode(t, err, CodeInvalidTransition)
	}

	out, err := DecideScheduleFollowUp(newState(StatusNew), followUpFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewStatus != StatusFollowUp || out.NewFollowUp == nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !out.RecordFollowupHistory || out.PreviousFollowUp != nil {
		t.Fatalf("expected a history entry with no prior schedule, got %+v", out)
	}
}

func TestRescheduleFollowUpOnlyFromFollowUp(t *testing.T) {
	for _, status := range []Status{StatusNew, StatusLost} {
		_, err := DecideRescheduleFollowUp(newState(status), followUpFixture())
		wantCode(t, err, CodeInvalidTransition)
	}

	state := newState(StatusFollowUp)
	next := FollowUp{Reason: "moved by customer", Date: "2025-07-05", Time: "15:00"}
	out, err := DecideRescheduleFollowUp(state, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewFollowUp == nil || out.NewFollowUp.Date != "2025-07-05" {
		t.Fatalf("unexpected new schedule %+v", out.NewFollowUp)
	}
	if out.PreviousFollowUp == nil || out.PreviousFollowUp.Date != "2025-07-01" {
		t.Fatalf("expected prior schedule in history, got %+v", out.PreviousFollowUp)
	}
}

func TestRevertRequiresReason(t *testing.T) {
	_, err := DecideRevert(newState(StatusFollowUp), "   ", false)
	wantCode(t, err, CodeMissingPayload)
}

func TestRevertFromFollowUpClearsSchedule(t *testing.T) {
	out, err := DecideRevert(newState(StatusFollowUp), "customer answered", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewStatus != StatusNew || out.NewFollowUp != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !out.RecordFollowupHistory || out.PreviousFollowUp == nil {
		t.Fatal("expected the closed schedule to be recorded in history")
	}
}

func TestRevertFromLostRequiresPrivilege(t *testing.T) {
	_, err := DecideRevert(newState(StatusLost), "reopened by customer", false)
	wantCode(t, err, CodeInvalidTransition)

	out, err := DecideRevert(newState(StatusLost), "reopened by customer", true)
	if err != nil {
		t.Fatalf("privileged revert rejected: %v", err)
	}
	if out.NewStatus != StatusNew {
		t.Fatalf("expected status new, got %s", out.NewStatus)
	}
	if out.RecordFollowupHistory {
		t.Fatal("lost leads carry no schedule; no history entry expected")
	}
}

func TestRevertFromNewIsInvalid(t *testing.T) {
	_, err := DecideRevert(newState(StatusNew), "noop", true)
	wantCode(t, err, CodeInvalidTransition)
}

func TestMarkLostOnlyFromNew(t *testing.T) {
	for _, status := range []Status{StatusFollowUp, StatusLost} {
		_, err := DecideMarkLost(newState(status))
		wantCode(t, err, CodeInvalidTransition)
	}

	out, err := DecideMarkLost(newState(StatusNew))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewStatus != StatusLost || out.NewFollowUp != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestStageChangeValidation(t *testing.T) {
	state := newState(StatusNew)

	if _, err := DecideStageChange(state, StageField, "  ", false); err == nil {
		t.Error("expected missing reason to be rejected")
	}
	_, err := DecideStageChange(state, Stage("sales"), "handoff", false)
	wantCode(t, err, CodeInvalidTransition)

	_, err = DecideStageChange(state, StageTele, "handoff", false)
	wantCode(t, err, CodeInvalidTransition)

	_, err = DecideStageChange(state, StageQuotation, "handoff", false)
	wantCode(t, err, CodeInvalidTransition)
}

func TestStageChangeOnLostLeadIsInvalid(t *testing.T) {
	_, err := DecideStageChange(newState(StatusLost), StageField, "handoff", false)
	wantCode(t, err, CodeInvalidTransition)

	// The override relaxes the edge constraint, not the lost constraint.
	_, err = DecideStageChange(newState(StatusLost), StageField, "handoff", true)
	wantCode(t, err, CodeInvalidTransition)
}

func TestStageChangeResetsStatusAndAssignee(t *testing.T) {
	assignee := uuid.New()
	state := newState(StatusNew)
	state.Assignee = &assignee

	out, err := DecideStageChange(state, StageField, "qualified for site visit", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewStage != StageField || out.NewStatus != StatusNew {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.NewAssignee != nil {
		t.Fatal("expected assignee to clear on handoff")
	}
	if out.RecordFollowupHistory {
		t.Fatal("no follow-up was active; no history entry expected")
	}
}

func TestStageChangeClosesActiveFollowUp(t *testing.T) {
	out, err := DecideStageChange(newState(StatusFollowUp), StageField, "qualified", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewFollowUp != nil {
		t.Fatal("expected the schedule to clear on handoff")
	}
	if !out.RecordFollowupHistory || out.PreviousFollowUp == nil {
		t.Fatal("expected the closed schedule to be recorded in history")
	}
}

func TestStageChangeOverrideSkipsEdgeCheck(t *testing.T) {
	out, err := DecideStageChange(newState(StatusNew), StageQuotation, "escalated", true)
	if err != nil {
		t.Fatalf("override rejected: %v", err)
	}
	if out.NewStage != StageQuotation {
		t.Fatalf("unexpected stage %s", out.NewStage)
	}
}

func TestAssignRequiresTarget(t *testing.T) {
	_, err := DecideAssign(newState(StatusNew), uuid.Nil)
	wantCode(t, err, CodeMissingPayload)
}

func TestAssignPreservesStatusAndSchedule(t *testing.T) {
	state := newState(StatusFollowUp)
	target := uuid.New()

	out, err := DecideAssign(state, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NewStatus != StatusFollowUp || out.NewStage != state.Stage {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.NewFollowUp == nil || out.NewFollowUp.Date != followUpFixture().Date {
		t.Fatal("expected the active schedule to survive reassignment")
	}
	if out.NewAssignee == nil || *out.NewAssignee != target {
		t.Fatalf("unexpected assignee %v", out.NewAssignee)
	}
}

func TestCheckInvariants(t *testing.T) {
	fu := followUpFixture()

	cases := []struct {
		name  string
		state LeadState
		valid bool
	}{
		{"new lead", LeadState{Stage: StageTele, Status: StatusNew}, true},
		{"follow_up with schedule", LeadState{Stage: StageTele, Status: StatusFollowUp, FollowUp: &fu}, true},
		{"follow_up without schedule", LeadState{Stage: StageTele, Status: StatusFollowUp}, false},
		{"new with schedule", LeadState{Stage: StageTele, Status: StatusNew, FollowUp: &fu}, false},
		{"lost with schedule", LeadState{Stage: StageTele, Status: StatusLost, FollowUp: &fu}, false},
		{"unknown stage", LeadState{Stage: Stage("sales"), Status: StatusNew}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reason := tc.state.CheckInvariants()
			if tc.valid && reason != "" {
				t.Fatalf("expected valid state, got %q", reason)
			}
			if !tc.valid && reason == "" {
				t.Fatal("expected an invariant violation")
			}
		})
	}
}
