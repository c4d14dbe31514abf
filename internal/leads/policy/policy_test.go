package policy

import (
	"testing"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/registry"

	"github.com/google/uuid"
)

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	return New(registry.Default())
}

func actorWith(role, department string) Actor {
	return Actor{EmployeeID: uuid.New(), RoleID: role, DepartmentID: department}
}

func TestCanSeeOwnAssignedLead(t *testing.T) {
	p := testPolicy(t)
	caller := actorWith("tele-caller", "tele")
	lead := LeadView{Stage: domain.StageTele, Assignee: &caller.EmployeeID}

	if !p.CanSee(caller, lead) {
		t.Fatal("expected a caller to see their own assigned lead")
	}
}

func TestCannotSeeTeammatesLead(t *testing.T) {
	p := testPolicy(t)
	caller := actorWith("tele-caller", "tele")
	other := uuid.New()
	lead := LeadView{Stage: domain.StageTele, Assignee: &other}

	if p.CanSee(caller, lead) {
		t.Fatal("expected a teammate's assigned lead to be hidden")
	}
}

func TestUnassignedLeadHiddenByDefault(t *testing.T) {
	p := testPolicy(t)
	caller := actorWith("tele-caller", "tele")
	lead := LeadView{Stage: domain.StageTele}

	if p.CanSee(caller, lead) {
		t.Fatal("default departments hide the unassigned queue from contributors")
	}
}

func TestUnassignedLeadVisibleWhenDepartmentExposesIt(t *testing.T) {
	reg, err := registry.New(
		[]registry.Department{{ID: "field", ExposeUnassigned: true}},
		[]registry.Role{{ID: "field-executive", Department: "field"}},
	)
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}
	p := New(reg)
	exec := actorWith("field-executive", "field")

	if !p.CanSee(exec, LeadView{Stage: domain.StageField}) {
		t.Fatal("expected the exposed unassigned queue to be visible")
	}
}

func TestDepartmentHeadSeesAllDepartmentLeads(t *testing.T) {
	p := testPolicy(t)
	head := actorWith("field-head", "field")
	other := uuid.New()

	if !p.CanSee(head, LeadView{Stage: domain.StageField, Assignee: &other}) {
		t.Fatal("expected head to see any lead in their department")
	}
	if !p.CanSee(head, LeadView{Stage: domain.StageField}) {
		t.Fatal("expected head to see the unassigned queue")
	}
	if p.CanSee(head, LeadView{Stage: domain.StageTele}) {
		t.Fatal("expected head to not see other departments")
	}
}

func TestCrossDepartmentHeadSeesEverything(t *testing.T) {
	p := testPolicy(t)
	boss := actorWith(registry.CrossDepartmentHeadRole, "")

	for _, stage := range []domain.Stage{domain.StageTele, domain.StagePayments} {
		if !p.CanSee(boss, LeadView{Stage: stage}) {
			t.Fatalf("expected cross-department head to see stage %s", stage)
		}
	}
}

func TestUnknownRoleSeesNothing(t *testing.T) {
	p := testPolicy(t)
	ghost := actorWith("intern", "tele")

	if p.CanSee(ghost, LeadView{Stage: domain.StageTele, Assignee: &ghost.EmployeeID}) {
		t.Fatal("unknown roles must have no visibility")
	}
	if scope := p.ScopeFor(ghost); !scope.Nothing {
		t.Fatalf("expected empty scope, got %+v", scope)
	}
}

func TestContributorMayTransitionOwnLeadOnly(t *testing.T) {
	p := testPolicy(t)
	caller := actorWith("tele-caller", "tele")
	own := LeadView{Stage: domain.StageTele, Assignee: &caller.EmployeeID}
	other := uuid.New()
	foreign := LeadView{Stage: domain.StageTele, Assignee: &other}

	if d := p.Authorize(caller, own, ActionStatusTransition); !d.Allowed {
		t.Fatalf("own-lead status transition denied: %s", d.Reason)
	}
	if d := p.Authorize(caller, foreign, ActionStatusTransition); d.Allowed {
		t.Fatal("expected a teammate's lead to be off-limits")
	}
	if d := p.Authorize(caller, own, ActionChangeStage); d.Allowed {
		t.Fatal("expected stage changes to require a head role")
	}
	if d := p.Authorize(caller, own, ActionAssign); d.Allowed {
		t.Fatal("expected reassignment to require a head role")
	}
}

func TestDepartmentHeadMayActWithinDepartmentOnly(t *testing.T) {
	p := testPolicy(t)
	head := actorWith("tele-head", "tele")
	other := uuid.New()
	inDept := LeadView{Stage: domain.StageTele, Assignee: &other}
	elsewhere := LeadView{Stage: domain.StageField, Assignee: &other}

	for _, action := range []Action{ActionStatusTransition, ActionChangeStage, ActionAssign} {
		if d := p.Authorize(head, inDept, action); !d.Allowed {
			t.Errorf("head denied %s in own department: %s", action, d.Reason)
		}
		if d := p.Authorize(head, elsewhere, action); d.Allowed {
			t.Errorf("head allowed %s outside their department", action)
		}
	}
}

func TestCrossDepartmentHeadMayDoAnything(t *testing.T) {
	p := testPolicy(t)
	boss := actorWith(registry.CrossDepartmentHeadRole, "")
	lead := LeadView{Stage: domain.StageQuotation}

	for _, action := range []Action{ActionStatusTransition, ActionChangeStage, ActionAssign} {
		if d := p.Authorize(boss, lead, action); !d.Allowed {
			t.Errorf("cross-department head denied %s: %s", action, d.Reason)
		}
	}
}

func TestIsPrivileged(t *testing.T) {
	p := testPolicy(t)
	lead := LeadView{Stage: domain.StageTele}

	if !p.IsPrivileged(actorWith(registry.CrossDepartmentHeadRole, ""), lead) {
		t.Error("cross-department head should be privileged everywhere")
	}
	if !p.IsPrivileged(actorWith("tele-head", "tele"), lead) {
		t.Error("department head should be privileged in their department")
	}
	if p.IsPrivileged(actorWith("field-head", "field"), lead) {
		t.Error("a head of another department should not be privileged")
	}
	if p.IsPrivileged(actorWith("tele-caller", "tele"), lead) {
		t.Error("a contributor should not be privileged")
	}
}

func TestScopeForMirrorsCanSee(t *testing.T) {
	p := testPolicy(t)

	boss := p.ScopeFor(actorWith(registry.CrossDepartmentHeadRole, ""))
	if !boss.All {
		t.Fatalf("expected unrestricted scope, got %+v", boss)
	}

	head := p.ScopeFor(actorWith("field-head", "field"))
	if head.Stage != domain.StageField || head.AssigneeOnly != nil {
		t.Fatalf("expected department-wide scope, got %+v", head)
	}

	caller := actorWith("tele-caller", "tele")
	scope := p.ScopeFor(caller)
	if scope.Stage != domain.StageTele {
		t.Fatalf("expected tele scope, got %+v", scope)
	}
	if scope.AssigneeOnly == nil || *scope.AssigneeOnly != caller.EmployeeID {
		t.Fatalf("expected assignee-restricted scope, got %+v", scope)
	}
	if scope.IncludeUnassigned {
		t.Fatal("tele does not expose its unassigned queue")
	}
}
