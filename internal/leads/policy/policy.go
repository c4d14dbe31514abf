// Package policy implements the authorization rules for the lead workflow:
// who may see a lead and who may apply which transition. All decisions are
// pure functions over the actor, the lead's current ownership, and the
// department/role registry; nothing here touches storage.
package policy

import (
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/registry"

	"github.com/google/uuid"
)

// Actor is the authenticated caller, as asserted by the identity provider.
type Actor struct {
	EmployeeID   uuid.UUID
	RoleID       string
	DepartmentID string
}

// LeadView is the slice of lead state authorization decisions depend on.
type LeadView struct {
	Stage    domain.Stage
	Assignee *uuid.UUID
}

// Action is a category of requested mutation.
type Action string

const (
	// ActionStatusTransition covers schedule, reschedule, revert and lost:
	// status-axis changes an owner may apply to their own lead.
	ActionStatusTransition Action = "status_transition"
	// ActionChangeStage hands the lead to another department.
	ActionChangeStage Action = "change_stage"
	// ActionAssign reassigns the lead within its current stage.
	ActionAssign Action = "assign"
)

// Decision records whether an action is allowed and, when denied, why.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Policy evaluates visibility and transition authorization against the
// department/role registry.
type Policy struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Policy {
	return &Policy{reg: reg}
}

// CanSee reports whether the actor may see the lead at all. Listing
// endpoints apply this as a filter; getLead reports not_found on denial so
// lead existence never leaks across departments.
func (p *Policy) CanSee(actor Actor, lead LeadView) bool {
	role, ok := p.reg.Role(actor.RoleID)
	if !ok {
		return false
	}

	if role.CrossDepartment {
		return true
	}
	if role.Department != string(lead.Stage) {
		return false
	}
	if role.Head {
		return true
	}

	if lead.Assignee != nil {
		return *lead.Assignee == actor.EmployeeID
	}
	return p.reg.ExposesUnassigned(string(lead.Stage))
}

// Authorize decides whether the actor may apply the requested action to the
// lead. Rules, in priority order: the cross-department head may do anything;
// a department head may do anything within their own department; everyone
// else may only apply status transitions to a lead assigned to them.
func (p *Policy) Authorize(actor Actor, lead LeadView, action Action) Decision {
	role, ok := p.reg.Role(actor.RoleID)
	if !ok {
		return deny("unknown role")
	}

	if role.CrossDepartment {
		return allow()
	}

	if role.Department != string(lead.Stage) {
		return deny("lead belongs to another department")
	}

	if role.Head {
		return allow()
	}

	switch action {
	case ActionChangeStage:
		return deny("only a head role may move a lead to another department")
	case ActionAssign:
		return deny("only a head role may reassign leads")
	case ActionStatusTransition:
		if lead.Assignee == nil || *lead.Assignee != actor.EmployeeID {
			return deny("lead is not assigned to the actor")
		}
		return allow()
	default:
		return deny("unknown action")
	}
}

// IsPrivileged reports whether the actor holds head authority over the lead:
// either the cross-department head role, or a department head of the lead's
// current stage. Gates the lost → new revert.
func (p *Policy) IsPrivileged(actor Actor, lead LeadView) bool {
	role, ok := p.reg.Role(actor.RoleID)
	if !ok {
		return false
	}
	if role.CrossDepartment {
		return true
	}
	return role.Head && role.Department == string(lead.Stage)
}

// VisibleScope describes the filter a listing query applies for an actor.
type VisibleScope struct {
	// All, when set, grants unrestricted visibility (cross-department head).
	All bool
	// Stage restricts results to one department.
	Stage domain.Stage
	// AssigneeOnly, when non-nil, restricts to leads assigned to that
	// employee; combined with IncludeUnassigned for departments that expose
	// their unassigned queue to individual contributors.
	AssigneeOnly      *uuid.UUID
	IncludeUnassigned bool
	// Nothing marks an actor with no visibility at all (unknown role).
	Nothing bool
}

// ScopeFor derives the listing filter for the actor. Keeping the scope
// derivation next to CanSee keeps the two visibility paths consistent.
func (p *Policy) ScopeFor(actor Actor) VisibleScope {
	role, ok := p.reg.Role(actor.RoleID)
	if !ok {
		return VisibleScope{Nothing: true}
	}

	if role.CrossDepartment {
		return VisibleScope{All: true}
	}

	stage := domain.Stage(role.Department)
	if role.Head {
		return VisibleScope{Stage: stage}
	}

	id := actor.EmployeeID
	return VisibleScope{
		Stage:             stage,
		AssigneeOnly:      &id,
		IncludeUnassigned: p.reg.ExposesUnassigned(role.Department),
	}
}
