package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/policy"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/internal/registry"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store that mirrors the repository's revision
// semantics closely enough for engine tests.
type fakeStore struct {
	leads      map[uuid.UUID]repository.Lead
	activity   []repository.AppendActivityParams
	followups  []repository.AppendFollowupParams
	lastFilter repository.ListFilter
	applyErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:                 uuid.New(),
		Stage:              params.Stage,
		Status:             "new",
		AssignedEmployeeID: params.AssignedEmployeeID,
		Company:            params.Company,
		ContactName:        params.ContactName,
		ContactPhone:       params.ContactPhone,
		ContactEmail:       params.ContactEmail,
		Requirement:        params.Requirement,
		CreatedBy:          params.CreatedBy,
		Revision:           1,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) List(_ context.Context, filter repository.ListFilter) ([]repository.Lead, error) {
	f.lastFilter = filter
	results := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if filter.Stage != "" && lead.Stage != filter.Stage {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.AssigneeOnly != nil {
			assigned := lead.AssignedEmployeeID != nil && *lead.AssignedEmployeeID == *filter.AssigneeOnly
			unassigned := lead.AssignedEmployeeID == nil && filter.IncludeUnassigned
			if !assigned && !unassigned {
				continue
			}
		}
		results = append(results, lead)
	}
	return results, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, params repository.ApplyTransitionParams) (repository.Lead, error) {
	if f.applyErr != nil {
		return repository.Lead{}, f.applyErr
	}

	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if lead.Revision != params.ExpectedRevision {
		return repository.Lead{}, repository.ErrStaleLead
	}

	lead.Stage = params.NewStage
	lead.Status = params.NewStatus
	lead.AssignedEmployeeID = params.NewAssigneeID
	lead.FollowupReason = params.NewFollowupReason
	lead.FollowupDate = params.NewFollowupDate
	lead.FollowupTime = params.NewFollowupTime
	lead.Revision++
	lead.UpdatedAt = time.Now()
	f.leads[lead.ID] = lead

	f.activity = append(f.activity, params.Activity)
	if params.Followup != nil {
		f.followups = append(f.followups, *params.Followup)
	}
	return lead, nil
}

func (f *fakeStore) AppendActivity(_ context.Context, params repository.AppendActivityParams) error {
	f.activity = append(f.activity, params)
	return nil
}

func (f *fakeStore) ListActivityByLead(_ context.Context, leadID uuid.UUID) ([]repository.ActivityEntry, error) {
	entries := make([]repository.ActivityEntry, 0)
	for i, p := range f.activity {
		if p.LeadID != leadID {
			continue
		}
		entries = append(entries, activityEntry(int64(i+1), p))
	}
	return entries, nil
}

func (f *fakeStore) ListActivity(_ context.Context, filter repository.ActivityFilter) ([]repository.ActivityEntry, error) {
	entries := make([]repository.ActivityEntry, 0)
	for i, p := range f.activity {
		if filter.Stage != "" && p.NewStage != filter.Stage {
			continue
		}
		if filter.ActorID != nil && p.ActorID != *filter.ActorID {
			continue
		}
		entries = append(entries, activityEntry(int64(i+1), p))
	}
	return entries, nil
}

func (f *fakeStore) ListFollowupHistory(_ context.Context, leadID uuid.UUID, _ repository.FollowupFilter) ([]repository.FollowupEntry, error) {
	entries := make([]repository.FollowupEntry, 0)
	for i, p := range f.followups {
		if p.LeadID != leadID {
			continue
		}
		entries = append(entries, repository.FollowupEntry{
			ID:         int64(i + 1),
			LeadID:     p.LeadID,
			PrevReason: p.PrevReason,
			PrevDate:   p.PrevDate,
			PrevTime:   p.PrevTime,
			NewReason:  p.NewReason,
			NewDate:    p.NewDate,
			NewTime:    p.NewTime,
			UpdatedBy:  p.UpdatedBy,
			Department: p.Department,
		})
	}
	return entries, nil
}

func activityEntry(id int64, p repository.AppendActivityParams) repository.ActivityEntry {
	return repository.ActivityEntry{
		ID:          id,
		LeadID:      p.LeadID,
		ChangeType:  p.ChangeType,
		OldStage:    p.OldStage,
		NewStage:    p.NewStage,
		OldStatus:   p.OldStatus,
		NewStatus:   p.NewStatus,
		OldAssignee: p.OldAssignee,
		NewAssignee: p.NewAssignee,
		Reason:      p.Reason,
		ActorID:     p.ActorID,
		ActorRole:   p.ActorRole,
	}
}

// fakeDirectory answers roster checks from a fixed membership table.
type fakeDirectory struct {
	members map[uuid.UUID]string
}

func (f *fakeDirectory) EmployeeInDepartment(_ context.Context, id uuid.UUID, department string) (bool, error) {
	dept, ok := f.members[id]
	return ok && dept == department, nil
}

// fakeBus records published events synchronously.
type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBus) eventNames() []string {
	names := make([]string, 0, len(f.published))
	for _, e := range f.published {
		names = append(names, e.EventName())
	}
	return names
}

type fixture struct {
	svc   *Service
	store *fakeStore
	dir   *fakeDirectory
	bus   *fakeBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	dir := &fakeDirectory{members: make(map[uuid.UUID]string)}
	bus := &fakeBus{}
	reg := registry.Default()
	svc := New(store, dir, policy.New(reg), reg, bus, logger.New("development"))
	svc.WithClock(func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) })
	return &fixture{svc: svc, store: store, dir: dir, bus: bus}
}

func (fx *fixture) seedLead(stage, status string, assignee *uuid.UUID) repository.Lead {
	lead := repository.Lead{
		ID:                 uuid.New(),
		Stage:              stage,
		Status:             status,
		AssignedEmployeeID: assignee,
		Company:            "Acme Pvt Ltd",
		ContactName:        "Asha",
		ContactPhone:       "+919876543210",
		CreatedBy:          uuid.New(),
		Revision:           1,
	}
	if status == "follow_up" {
		reason, date, timeOfDay := "awaiting budget approval", "2025-06-20", "14:00"
		lead.FollowupReason, lead.FollowupDate, lead.FollowupTime = &reason, &date, &timeOfDay
	}
	fx.store.leads[lead.ID] = lead
	return lead
}

func actorWith(role, department string) policy.Actor {
	return policy.Actor{EmployeeID: uuid.New(), RoleID: role, DepartmentID: department}
}

func wantServiceCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.GetCode(err); got != code {
		t.Fatalf("expected code %s, got %s (%v)", code, got, err)
	}
}

func TestScheduleFollowUpHappyPath(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "new", &caller.EmployeeID)

	resp, err := fx.svc.ScheduleFollowUp(context.Background(), caller, lead.ID, transport.FollowUpRequest{
		Reason: "call back after demo",
		Date:   "2025-06-20",
		Time:   "14:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != "follow_up" || resp.FollowUp == nil || resp.FollowUp.Date != "2025-06-20" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Revision != 2 {
		t.Fatalf("expected revision bump to 2, got %d", resp.Revision)
	}
	if len(fx.store.activity) != 1 {
		t.Fatalf("expected exactly one activity entry, got %d", len(fx.store.activity))
	}
	entry := fx.store.activity[0]
	if entry.ChangeType != "status_changed" || entry.OldStatus != "new" || entry.NewStatus != "follow_up" {
		t.Fatalf("unexpected activity entry %+v", entry)
	}
	if len(fx.store.followups) != 1 {
		t.Fatalf("expected one follow-up history entry, got %d", len(fx.store.followups))
	}
	if fx.store.followups[0].PrevReason != nil {
		t.Fatal("first schedule should have no prior entry")
	}

	names := fx.bus.eventNames()
	if len(names) != 1 || names[0] != "leads.followup.scheduled" {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestScheduleFollowUpWithPastDateRejected(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "new", &caller.EmployeeID)

	_, err := fx.svc.ScheduleFollowUp(context.Background(), caller, lead.ID, transport.FollowUpRequest{
		Reason: "call back",
		Date:   "2025-06-10",
		Time:   "14:00",
	})
	wantServiceCode(t, err, domain.CodeMissingPayload)
	if len(fx.store.activity) != 0 {
		t.Fatal("rejected transition must not write activity")
	}
}

func TestTeammatesLeadReportsNotFound(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	other := uuid.New()
	lead := fx.seedLead("tele", "new", &other)

	_, err := fx.svc.GetByID(context.Background(), caller, lead.ID)
	wantServiceCode(t, err, domain.CodeNotFound)

	// Identical to a genuinely missing lead.
	_, err2 := fx.svc.GetByID(context.Background(), caller, uuid.New())
	wantServiceCode(t, err2, domain.CodeNotFound)
}

func TestRescheduleRecordsPriorSchedule(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "follow_up", &caller.EmployeeID)

	resp, err := fx.svc.RescheduleFollowUp(context.Background(), caller, lead.ID, transport.FollowUpRequest{
		Reason: "customer asked to move",
		Date:   "2025-06-25",
		Time:   "11:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FollowUp == nil || resp.FollowUp.Date != "2025-06-25" {
		t.Fatalf("unexpected schedule %+v", resp.FollowUp)
	}

	if len(fx.store.followups) != 1 {
		t.Fatalf("expected one history entry, got %d", len(fx.store.followups))
	}
	hist := fx.store.followups[0]
	if hist.PrevDate == nil || *hist.PrevDate != "2025-06-20" {
		t.Fatalf("expected prior schedule in history, got %+v", hist)
	}
	if hist.NewDate == nil || *hist.NewDate != "2025-06-25" {
		t.Fatalf("expected new schedule in history, got %+v", hist)
	}
}

func TestRevertFromLostIsHeadOnly(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "lost", &caller.EmployeeID)

	_, err := fx.svc.RevertToPrevious(context.Background(), caller, lead.ID, transport.ReasonRequest{Reason: "customer called back"})
	wantServiceCode(t, err, domain.CodeInvalidTransition)

	head := actorWith("tele-head", "tele")
	resp, err := fx.svc.RevertToPrevious(context.Background(), head, lead.ID, transport.ReasonRequest{Reason: "customer called back"})
	if err != nil {
		t.Fatalf("head revert rejected: %v", err)
	}
	if resp.Status != "new" {
		t.Fatalf("expected status new, got %s", resp.Status)
	}
}

func TestMarkLostOnlyFromNew(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "follow_up", &caller.EmployeeID)

	_, err := fx.svc.MarkLost(context.Background(), caller, lead.ID)
	wantServiceCode(t, err, domain.CodeInvalidTransition)
	if len(fx.store.activity) != 0 {
		t.Fatal("rejected transition must not write activity")
	}
}

func TestChangeStageRequiresHeadRole(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "new", &caller.EmployeeID)

	_, err := fx.svc.ChangeStage(context.Background(), caller, lead.ID, transport.ChangeStageRequest{
		TargetStage: "field",
		Reason:      "qualified",
	})
	wantServiceCode(t, err, domain.CodeUnauthorizedActor)

	stored := fx.store.leads[lead.ID]
	if stored.Stage != "tele" || stored.Revision != 1 {
		t.Fatal("denied transition must leave the lead unchanged")
	}
}

func TestChangeStageHandoff(t *testing.T) {
	fx := newFixture(t)
	head := actorWith("tele-head", "tele")
	assignee := uuid.New()
	lead := fx.seedLead("tele", "follow_up", &assignee)

	resp, err := fx.svc.ChangeStage(context.Background(), head, lead.ID, transport.ChangeStageRequest{
		TargetStage: "field",
		Reason:      "qualified for site visit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Stage != "field" || resp.Status != "new" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.AssigneeID != nil {
		t.Fatal("expected assignee to clear on handoff")
	}
	if resp.FollowUp != nil {
		t.Fatal("expected active follow-up to close on handoff")
	}
	if len(fx.store.followups) != 1 {
		t.Fatal("expected the closed schedule in follow-up history")
	}

	names := fx.bus.eventNames()
	if len(names) != 1 || names[0] != "leads.lead.stage_changed" {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestChangeStageOffPipelineRejected(t *testing.T) {
	fx := newFixture(t)
	head := actorWith("tele-head", "tele")
	lead := fx.seedLead("tele", "new", nil)

	_, err := fx.svc.ChangeStage(context.Background(), head, lead.ID, transport.ChangeStageRequest{
		TargetStage: "quotation",
		Reason:      "skip ahead",
	})
	wantServiceCode(t, err, domain.CodeInvalidTransition)
}

func TestCrossDepartmentHeadMaySkipStages(t *testing.T) {
	fx := newFixture(t)
	boss := actorWith(registry.CrossDepartmentHeadRole, "")
	lead := fx.seedLead("tele", "new", nil)

	resp, err := fx.svc.ChangeStage(context.Background(), boss, lead.ID, transport.ChangeStageRequest{
		TargetStage: "quotation",
		Reason:      "escalated by management",
	})
	if err != nil {
		t.Fatalf("override rejected: %v", err)
	}
	if resp.Stage != "quotation" {
		t.Fatalf("unexpected stage %s", resp.Stage)
	}
}

func TestChangeStageWithRosterAssignee(t *testing.T) {
	fx := newFixture(t)
	head := actorWith("tele-head", "tele")
	lead := fx.seedLead("tele", "new", nil)

	outsider := uuid.New()
	_, err := fx.svc.ChangeStage(context.Background(), head, lead.ID, transport.ChangeStageRequest{
		TargetStage: "field",
		Reason:      "qualified",
		AssigneeID:  &outsider,
	})
	wantServiceCode(t, err, domain.CodeAssigneeNotInStage)

	member := uuid.New()
	fx.dir.members[member] = "field"
	resp, err := fx.svc.ChangeStage(context.Background(), head, lead.ID, transport.ChangeStageRequest{
		TargetStage: "field",
		Reason:      "qualified",
		AssigneeID:  &member,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AssigneeID == nil || *resp.AssigneeID != member {
		t.Fatalf("expected lead assigned to %s, got %v", member, resp.AssigneeID)
	}

	names := fx.bus.eventNames()
	if len(names) != 2 || names[0] != "leads.lead.stage_changed" || names[1] != "leads.lead.assigned" {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestAssignWithinStage(t *testing.T) {
	fx := newFixture(t)
	head := actorWith("tele-head", "tele")
	lead := fx.seedLead("tele", "new", nil)

	outsider := uuid.New()
	_, err := fx.svc.AssignWithinStage(context.Background(), head, lead.ID, transport.AssignRequest{AssigneeID: outsider})
	wantServiceCode(t, err, domain.CodeAssigneeNotInStage)

	member := uuid.New()
	fx.dir.members[member] = "tele"
	resp, err := fx.svc.AssignWithinStage(context.Background(), head, lead.ID, transport.AssignRequest{AssigneeID: member})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AssigneeID == nil || *resp.AssigneeID != member {
		t.Fatalf("unexpected assignee %v", resp.AssigneeID)
	}
	if resp.Stage != "tele" || resp.Status != "new" {
		t.Fatal("assignment must not move the lead")
	}

	names := fx.bus.eventNames()
	if len(names) != 1 || names[0] != "leads.lead.assigned" {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestStaleLeadSurfacesRetryableConflict(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "new", &caller.EmployeeID)
	fx.store.applyErr = repository.ErrStaleLead

	_, err := fx.svc.MarkLost(context.Background(), caller, lead.ID)
	wantServiceCode(t, err, domain.CodeStaleLead)
}

func TestCreateAutoAssignsTeleCreator(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")

	resp, err := fx.svc.Create(context.Background(), caller, transport.CreateLeadRequest{
		Company:      "Acme Pvt Ltd",
		ContactName:  "Asha",
		ContactPhone: "9876543210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Stage != "tele" || resp.Status != "new" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.AssigneeID == nil || *resp.AssigneeID != caller.EmployeeID {
		t.Fatal("tele leads should auto-assign their creator")
	}
	if len(fx.store.activity) != 1 || fx.store.activity[0].ChangeType != "created" {
		t.Fatalf("expected one created activity entry, got %+v", fx.store.activity)
	}

	names := fx.bus.eventNames()
	if len(names) != 1 || names[0] != "leads.lead.created" {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestCreateIntoOtherStageIsCrossHeadOnly(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")

	_, err := fx.svc.Create(context.Background(), caller, transport.CreateLeadRequest{
		Company:      "Acme Pvt Ltd",
		ContactName:  "Asha",
		ContactPhone: "9876543210",
		Stage:        "field",
	})
	wantServiceCode(t, err, domain.CodeUnauthorizedActor)

	boss := actorWith(registry.CrossDepartmentHeadRole, "")
	resp, err := fx.svc.Create(context.Background(), boss, transport.CreateLeadRequest{
		Company:      "Acme Pvt Ltd",
		ContactName:  "Asha",
		ContactPhone: "9876543210",
		Stage:        "field",
	})
	if err != nil {
		t.Fatalf("cross-department create rejected: %v", err)
	}
	if resp.Stage != "field" || resp.AssigneeID != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListScopesToActor(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	fx.seedLead("tele", "new", &caller.EmployeeID)
	other := uuid.New()
	fx.seedLead("tele", "new", &other)
	fx.seedLead("field", "new", nil)

	leads, err := fx.svc.List(context.Background(), caller, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected only the caller's own lead, got %d", len(leads))
	}

	// A stage filter outside the caller's department matches nothing.
	leads, err = fx.svc.List(context.Background(), caller, "field", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 0 {
		t.Fatalf("expected empty result, got %d", len(leads))
	}

	boss := actorWith(registry.CrossDepartmentHeadRole, "")
	leads, err = fx.svc.List(context.Background(), boss, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 3 {
		t.Fatalf("expected all leads for cross-department head, got %d", len(leads))
	}
}

func TestWorkQueueFilters(t *testing.T) {
	fx := newFixture(t)
	head := actorWith("tele-head", "tele")
	date := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	if _, err := fx.svc.DueOn(context.Background(), head, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.store.lastFilter.Status != "follow_up" || fx.store.lastFilter.DueOnOrBefore != "2025-06-20" {
		t.Fatalf("unexpected due filter %+v", fx.store.lastFilter)
	}

	if _, err := fx.svc.OverdueOn(context.Background(), head, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.store.lastFilter.DueBefore != "2025-06-20" || fx.store.lastFilter.DueOnOrBefore != "" {
		t.Fatalf("unexpected overdue filter %+v", fx.store.lastFilter)
	}
}

func TestQueryActivityIsHeadOnlyAndPinned(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")

	_, err := fx.svc.QueryActivity(context.Background(), caller, transport.ActivityQuery{})
	wantServiceCode(t, err, domain.CodeUnauthorizedActor)

	// A department head's query is pinned to their own department even when
	// they ask for another stage.
	head := actorWith("tele-head", "tele")
	fx.store.activity = append(fx.store.activity,
		repository.AppendActivityParams{LeadID: uuid.New(), NewStage: "tele", ActorID: head.EmployeeID},
		repository.AppendActivityParams{LeadID: uuid.New(), NewStage: "field", ActorID: head.EmployeeID},
	)

	entries, err := fx.svc.QueryActivity(context.Background(), head, transport.ActivityQuery{Stage: "field"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range entries {
		if e.NewStage != "tele" {
			t.Fatalf("head query leaked stage %s", e.NewStage)
		}
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 pinned entry, got %d", len(entries))
	}
}

func TestGetFollowupHistoryIsVisibilityGated(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	other := uuid.New()
	lead := fx.seedLead("tele", "new", &other)

	_, err := fx.svc.GetFollowupHistory(context.Background(), caller, lead.ID, transport.FollowupHistoryQuery{})
	wantServiceCode(t, err, domain.CodeNotFound)
}

func TestApplyMapsRepositoryErrors(t *testing.T) {
	fx := newFixture(t)
	caller := actorWith("tele-caller", "tele")
	lead := fx.seedLead("tele", "new", &caller.EmployeeID)

	fx.store.applyErr = repository.ErrNotFound
	_, err := fx.svc.MarkLost(context.Background(), caller, lead.ID)
	wantServiceCode(t, err, domain.CodeNotFound)

	fx.store.applyErr = errors.New("connection reset")
	_, err = fx.svc.MarkLost(context.Background(), caller, lead.ID)
	if err == nil || apperr.GetCode(err) != "" {
		t.Fatalf("expected an uncoded passthrough error, got %v", err)
	}
}
