// Package service implements the lead transition engine: the single
// authority that accepts a transition request and either applies it
// atomically or rejects it with a specific reason.
package service

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/policy"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/internal/registry"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the persistence surface the engine needs. Implemented by
// repository.Repository; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, filter repository.ListFilter) ([]repository.Lead, error)
	ApplyTransition(ctx context.Context, params repository.ApplyTransitionParams) (repository.Lead, error)
	AppendActivity(ctx context.Context, params repository.AppendActivityParams) error
	ListActivityByLead(ctx context.Context, leadID uuid.UUID) ([]repository.ActivityEntry, error)
	ListActivity(ctx context.Context, filter repository.ActivityFilter) ([]repository.ActivityEntry, error)
	ListFollowupHistory(ctx context.Context, leadID uuid.UUID, filter repository.FollowupFilter) ([]repository.FollowupEntry, error)
}

// Directory answers roster membership questions for assignment checks.
// Implemented by registry.Repository.
type Directory interface {
	EmployeeInDepartment(ctx context.Context, id uuid.UUID, department string) (bool, error)
}

type Service struct {
	store     Store
	directory Directory
	policy    *policy.Policy
	reg       *registry.Registry
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

func New(store Store, directory Directory, pol *policy.Policy, reg *registry.Registry, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		policy:    pol,
		reg:       reg,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the engine's clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func errLeadNotFound() error {
	return apperr.NotFound("lead not found").WithCode(domain.CodeNotFound)
}

func errStaleLead() error {
	return apperr.Conflict("lead was modified concurrently, re-read and retry").WithCode(domain.CodeStaleLead)
}

func errUnauthorized(reason string) error {
	return apperr.Forbidden(reason).WithCode(domain.CodeUnauthorizedActor)
}

func errAssigneeNotInStage() error {
	return apperr.Unprocessable("target employee does not belong to the stage's roster").WithCode(domain.CodeAssigneeNotInStage)
}

// Create registers a new lead. The lead starts in the creating actor's
// department with status new; the cross-department head may create into any
// stage. Department policy decides whether the creator is auto-assigned.
func (s *Service) Create(ctx context.Context, actor policy.Actor, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	stage := actor.DepartmentID
	if req.Stage != "" {
		if req.Stage != actor.DepartmentID && !s.reg.IsCrossDepartmentHead(actor.RoleID) {
			return transport.LeadResponse{}, errUnauthorized("only the cross-department head may create a lead in another department")
		}
		stage = req.Stage
	}
	if _, err := domain.ParseStage(stage); err != nil {
		return transport.LeadResponse{}, apperr.Validation("unknown stage").WithCode(domain.CodeMissingPayload)
	}

	params := repository.CreateLeadParams{
		Stage:        stage,
		Company:      req.Company,
		ContactName:  req.ContactName,
		ContactPhone: phone.NormalizeE164(req.ContactPhone),
		CreatedBy:    actor.EmployeeID,
	}
	if req.ContactEmail != "" {
		params.ContactEmail = &req.ContactEmail
	}
	if req.Requirement != "" {
		params.Requirement = &req.Requirement
	}
	if stage == actor.DepartmentID && s.reg.AutoAssignsCreator(stage) {
		id := actor.EmployeeID
		params.AssignedEmployeeID = &id
	}

	lead, err := s.store.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if err := s.store.AppendActivity(ctx, repository.AppendActivityParams{
		LeadID:      lead.ID,
		ChangeType:  string(domain.ChangeCreated),
		OldStage:    lead.Stage,
		NewStage:    lead.Stage,
		OldStatus:   lead.Status,
		NewStatus:   lead.Status,
		NewAssignee: lead.AssignedEmployeeID,
		ActorID:     actor.EmployeeID,
		ActorRole:   actor.RoleID,
	}); err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		Stage:      lead.Stage,
		AssigneeID: lead.AssignedEmployeeID,
		CreatedBy:  actor.EmployeeID,
	})
	s.log.Transition(lead.ID.String(), string(domain.ChangeCreated), actor.EmployeeID.String(), actor.RoleID)

	return transport.ToLeadResponse(lead), nil
}

// List returns the leads visible to the actor, optionally narrowed by stage
// and status.
func (s *Service) List(ctx context.Context, actor policy.Actor, stageFilter, statusFilter string) ([]transport.LeadResponse, error) {
	filter, ok, err := s.scopedFilter(actor, stageFilter, statusFilter)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []transport.LeadResponse{}, nil
	}

	leads, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return transport.ToLeadResponses(leads), nil
}

// scopedFilter merges the actor's visibility scope with the requested
// filters. The second return value is false when the combination can match
// nothing (e.g. a tele caller asking for field leads).
func (s *Service) scopedFilter(actor policy.Actor, stageFilter, statusFilter string) (repository.ListFilter, bool, error) {
	var filter repository.ListFilter

	if stageFilter != "" {
		if _, err := domain.ParseStage(stageFilter); err != nil {
			return filter, false, apperr.Validation("unknown stage filter")
		}
	}
	if statusFilter != "" {
		if _, err := domain.ParseStatus(statusFilter); err != nil {
			return filter, false, apperr.Validation("unknown status filter")
		}
	}
	filter.Status = statusFilter

	scope := s.policy.ScopeFor(actor)
	switch {
	case scope.Nothing:
		return filter, false, nil
	case scope.All:
		filter.Stage = stageFilter
	default:
		if stageFilter != "" && stageFilter != string(scope.Stage) {
			return filter, false, nil
		}
		filter.Stage = string(scope.Stage)
		filter.AssigneeOnly = scope.AssigneeOnly
		filter.IncludeUnassigned = scope.IncludeUnassigned
	}

	return filter, true, nil
}

// GetByID returns a single lead. A lead the actor may not see reports
// not_found, indistinguishable from a lead that does not exist.
func (s *Service) GetByID(ctx context.Context, actor policy.Actor, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.visibleLead(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

func (s *Service) visibleLead(ctx context.Context, actor policy.Actor, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, errLeadNotFound()
		}
		return repository.Lead{}, err
	}

	if !s.policy.CanSee(actor, leadView(lead)) {
		return repository.Lead{}, errLeadNotFound()
	}

	return lead, nil
}

// ScheduleFollowUp applies new → follow_up.
func (s *Service) ScheduleFollowUp(ctx context.Context, actor policy.Actor, id uuid.UUID, req transport.FollowUpRequest) (transport.LeadResponse, error) {
	followUp, err := domain.ParseFollowUp(req.Reason, req.Date, req.Time, s.now())
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return s.statusTransition(ctx, actor, id, func(state domain.LeadState) (domain.Outcome, error) {
		return domain.DecideScheduleFollowUp(state, followUp)
	})
}

// RescheduleFollowUp applies follow_up → follow_up, recording the prior
// schedule in the follow-up history.
func (s *Service) RescheduleFollowUp(ctx context.Context, actor policy.Actor, id uuid.UUID, req transport.FollowUpRequest) (transport.LeadResponse, error) {
	followUp, err := domain.ParseFollowUp(req.Reason, req.Date, req.Time, s.now())
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return s.statusTransition(ctx, actor, id, func(state domain.LeadState) (domain.Outcome, error) {
		return domain.DecideRescheduleFollowUp(state, followUp)
	})
}

// RevertToPrevious applies follow_up → new, or the head-only lost → new.
func (s *Service) RevertToPrevious(ctx context.Context, actor policy.Actor, id uuid.UUID, req transport.ReasonRequest) (transport.LeadResponse, error) {
	return s.statusTransitionWith(ctx, actor, id, func(state domain.LeadState, lead repository.Lead) (domain.Outcome, error) {
		privileged := s.policy.IsPrivileged(actor, leadView(lead))
		return domain.DecideRevert(state, req.Reason, privileged)
	})
}

// MarkLost applies new → lost.
func (s *Service) MarkLost(ctx context.Context, actor policy.Actor, id uuid.UUID) (transport.LeadResponse, error) {
	return s.statusTransition(ctx, actor, id, func(state domain.LeadState) (domain.Outcome, error) {
		return domain.DecideMarkLost(state)
	})
}

func (s *Service) statusTransition(ctx context.Context, actor policy.Actor, id uuid.UUID, decide func(domain.LeadState) (domain.Outcome, error)) (transport.LeadResponse, error) {
	return s.statusTransitionWith(ctx, actor, id, func(state domain.LeadState, _ repository.Lead) (domain.Outcome, error) {
		return decide(state)
	})
}

func (s *Service) statusTransitionWith(ctx context.Context, actor policy.Actor, id uuid.UUID, decide func(domain.LeadState, repository.Lead) (domain.Outcome, error)) (transport.LeadResponse, error) {
	lead, err := s.visibleLead(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if decision := s.policy.Authorize(actor, leadView(lead), policy.ActionStatusTransition); !decision.Allowed {
		return transport.LeadResponse{}, errUnauthorized(decision.Reason)
	}

	outcome, err := decide(leadState(lead), lead)
	if err != nil {
		s.log.TransitionRejected(lead.ID.String(), string(domain.ChangeStatusChanged), apperr.GetCode(err))
		return transport.LeadResponse{}, err
	}

	updated, err := s.apply(ctx, actor, lead, outcome)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return transport.ToLeadResponse(updated), nil
}

// ChangeStage hands the lead to another department. Status resets to new and
// the assignee clears unless the payload explicitly re-assigns to a member
// of the target stage's roster.
func (s *Service) ChangeStage(ctx context.Context, actor policy.Actor, id uuid.UUID, req transport.ChangeStageRequest) (transport.LeadResponse, error) {
	lead, err := s.visibleLead(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if decision := s.policy.Authorize(actor, leadView(lead), policy.ActionChangeStage); !decision.Allowed {
		return transport.LeadResponse{}, errUnauthorized(decision.Reason)
	}

	override := s.reg.IsCrossDepartmentHead(actor.RoleID)
	outcome, err := domain.DecideStageChange(leadState(lead), domain.Stage(req.TargetStage), req.Reason, override)
	if err != nil {
		s.log.TransitionRejected(lead.ID.String(), string(domain.ChangeStageChanged), apperr.GetCode(err))
		return transport.LeadResponse{}, err
	}

	if req.AssigneeID != nil {
		ok, err := s.directory.EmployeeInDepartment(ctx, *req.AssigneeID, req.TargetStage)
		if err != nil {
			return transport.LeadResponse{}, err
		}
		if !ok {
			return transport.LeadResponse{}, errAssigneeNotInStage()
		}
		outcome.NewAssignee = req.AssigneeID
	}

	updated, err := s.apply(ctx, actor, lead, outcome)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return transport.ToLeadResponse(updated), nil
}

// AssignWithinStage reassigns the lead to a teammate in its current stage.
// Head roles only; status and stage are untouched.
func (s *Service) AssignWithinStage(ctx context.Context, actor policy.Actor, id uuid.UUID, req transport.AssignRequest) (transport.LeadResponse, error) {
	lead, err := s.visibleLead(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if decision := s.policy.Authorize(actor, leadView(lead), policy.ActionAssign); !decision.Allowed {
		return transport.LeadResponse{}, errUnauthorized(decision.Reason)
	}

	outcome, err := domain.DecideAssign(leadState(lead), req.AssigneeID)
	if err != nil {
		s.log.TransitionRejected(lead.ID.String(), string(domain.ChangeAssigneeChanged), apperr.GetCode(err))
		return transport.LeadResponse{}, err
	}

	ok, err := s.directory.EmployeeInDepartment(ctx, req.AssigneeID, lead.Stage)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if !ok {
		return transport.LeadResponse{}, errAssigneeNotInStage()
	}

	updated, err := s.apply(ctx, actor, lead, outcome)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	return transport.ToLeadResponse(updated), nil
}

// apply commits the outcome atomically (lead row + activity entry +
// follow-up history entry), then publishes the relevant events. Exactly one
// activity entry exists per accepted transition.
func (s *Service) apply(ctx context.Context, actor policy.Actor, lead repository.Lead, outcome domain.Outcome) (repository.Lead, error) {
	params := repository.ApplyTransitionParams{
		LeadID:           lead.ID,
		ExpectedRevision: lead.Revision,
		NewStage:         string(outcome.NewStage),
		NewStatus:        string(outcome.NewStatus),
		NewAssigneeID:    outcome.NewAssignee,
		Activity: repository.AppendActivityParams{
			LeadID:      lead.ID,
			ChangeType:  string(outcome.ChangeType),
			OldStage:    lead.Stage,
			NewStage:    string(outcome.NewStage),
			OldStatus:   lead.Status,
			NewStatus:   string(outcome.NewStatus),
			OldAssignee: lead.AssignedEmployeeID,
			NewAssignee: outcome.NewAssignee,
			ActorID:     actor.EmployeeID,
			ActorRole:   actor.RoleID,
		},
	}
	if outcome.Reason != "" {
		reason := outcome.Reason
		params.Activity.Reason = &reason
	}
	if outcome.NewFollowUp != nil {
		params.NewFollowupReason = &outcome.NewFollowUp.Reason
		params.NewFollowupDate = &outcome.NewFollowUp.Date
		params.NewFollowupTime = &outcome.NewFollowUp.Time
	}
	if outcome.RecordFollowupHistory {
		entry := repository.AppendFollowupParams{
			LeadID:     lead.ID,
			UpdatedBy:  actor.EmployeeID,
			Department: lead.Stage,
		}
		if outcome.PreviousFollowUp != nil {
			entry.PrevReason = &outcome.PreviousFollowUp.Reason
			entry.PrevDate = &outcome.PreviousFollowUp.Date
			entry.PrevTime = &outcome.PreviousFollowUp.Time
		}
		if outcome.NewFollowUp != nil {
			entry.NewReason = &outcome.NewFollowUp.Reason
			entry.NewDate = &outcome.NewFollowUp.Date
			entry.NewTime = &outcome.NewFollowUp.Time
		}
		params.Followup = &entry
	}

	updated, err := s.store.ApplyTransition(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleLead):
			return repository.Lead{}, errStaleLead()
		case errors.Is(err, repository.ErrNotFound):
			return repository.Lead{}, errLeadNotFound()
		default:
			return repository.Lead{}, err
		}
	}

	s.publish(ctx, actor, lead, updated, outcome)
	s.log.Transition(lead.ID.String(), string(outcome.ChangeType), actor.EmployeeID.String(), actor.RoleID)

	return updated, nil
}

func (s *Service) publish(ctx context.Context, actor policy.Actor, before, after repository.Lead, outcome domain.Outcome) {
	switch outcome.ChangeType {
	case domain.ChangeStageChanged:
		s.bus.Publish(ctx, events.LeadStageChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    after.ID,
			OldStage:  before.Stage,
			NewStage:  after.Stage,
			Reason:    outcome.Reason,
			ActorID:   actor.EmployeeID,
		})
	case domain.ChangeStatusChanged:
		if outcome.NewStatus == domain.StatusFollowUp && outcome.NewFollowUp != nil {
			s.bus.Publish(ctx, events.FollowUpScheduled{
				BaseEvent:  events.NewBaseEvent(),
				LeadID:     after.ID,
				Stage:      after.Stage,
				Reason:     outcome.NewFollowUp.Reason,
				Date:       outcome.NewFollowUp.Date,
				Time:       outcome.NewFollowUp.Time,
				AssigneeID: after.AssignedEmployeeID,
			})
		}
	}

	// Any transition that produced a new assignee notifies that assignee.
	if after.AssignedEmployeeID != nil && changedAssignee(before.AssignedEmployeeID, after.AssignedEmployeeID) {
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     after.ID,
			Stage:      after.Stage,
			AssigneeID: *after.AssignedEmployeeID,
			AssignedBy: actor.EmployeeID,
		})
	}
}

func changedAssignee(before, after *uuid.UUID) bool {
	if after == nil {
		return false
	}
	return before == nil || *before != *after
}

// GetActivityLog returns the activity trail of one lead, visibility-gated.
func (s *Service) GetActivityLog(ctx context.Context, actor policy.Actor, id uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.visibleLead(ctx, actor, id); err != nil {
		return nil, err
	}

	entries, err := s.store.ListActivityByLead(ctx, id)
	if err != nil {
		return nil, err
	}

	return transport.ToActivityResponses(entries), nil
}

// QueryActivity searches the ledger across leads. Head roles only; a
// department head's view is pinned to their own department.
func (s *Service) QueryActivity(ctx context.Context, actor policy.Actor, req transport.ActivityQuery) ([]transport.ActivityResponse, error) {
	role, ok := s.reg.Role(actor.RoleID)
	if !ok || !role.Head {
		return nil, errUnauthorized("only head roles may query the activity ledger")
	}

	filter := repository.ActivityFilter{
		ActorID: req.ActorID,
		From:    req.From,
		To:      req.To,
	}
	if role.CrossDepartment {
		filter.Stage = req.Stage
	} else {
		filter.Stage = role.Department
	}

	entries, err := s.store.ListActivity(ctx, filter)
	if err != nil {
		return nil, err
	}

	return transport.ToActivityResponses(entries), nil
}

// GetFollowupHistory returns the schedule/reschedule trail of one lead.
func (s *Service) GetFollowupHistory(ctx context.Context, actor policy.Actor, id uuid.UUID, req transport.FollowupHistoryQuery) ([]transport.FollowupHistoryResponse, error) {
	if _, err := s.visibleLead(ctx, actor, id); err != nil {
		return nil, err
	}

	entries, err := s.store.ListFollowupHistory(ctx, id, repository.FollowupFilter{
		UpdatedBy:  req.UpdatedBy,
		Department: req.Department,
		From:       req.From,
		To:         req.To,
	})
	if err != nil {
		return nil, err
	}

	return transport.ToFollowupHistoryResponses(entries), nil
}

func leadView(lead repository.Lead) policy.LeadView {
	return policy.LeadView{
		Stage:    domain.Stage(lead.Stage),
		Assignee: lead.AssignedEmployeeID,
	}
}

func leadState(lead repository.Lead) domain.LeadState {
	return domain.LeadState{
		Stage:    domain.Stage(lead.Stage),
		Status:   domain.Status(lead.Status),
		FollowUp: followUpOf(lead),
		Assignee: lead.AssignedEmployeeID,
	}
}

func followUpOf(lead repository.Lead) *domain.FollowUp {
	if lead.FollowupReason == nil || lead.FollowupDate == nil || lead.FollowupTime == nil {
		return nil
	}
	return &domain.FollowUp{
		Reason: *lead.FollowupReason,
		Date:   *lead.FollowupDate,
		Time:   *lead.FollowupTime,
	}
}
