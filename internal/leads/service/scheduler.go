package service

import (
	"context"
	"time"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/policy"
	"leadflow_backend/internal/leads/transport"
)

// Follow-up work-queue queries. A lead is due when its status is follow_up
// and its follow-up date is on or before the query date, overdue when
// strictly before. Both are computed on demand from stored dates; nothing
// polls or fires timers here.

// DueOn returns the actor's visible leads due on the given date.
func (s *Service) DueOn(ctx context.Context, actor policy.Actor, date time.Time) ([]transport.LeadResponse, error) {
	return s.workQueue(ctx, actor, date, false)
}

// OverdueOn returns the actor's visible leads whose follow-up date has passed.
func (s *Service) OverdueOn(ctx context.Context, actor policy.Actor, date time.Time) ([]transport.LeadResponse, error) {
	return s.workQueue(ctx, actor, date, true)
}

func (s *Service) workQueue(ctx context.Context, actor policy.Actor, date time.Time, strictlyBefore bool) ([]transport.LeadResponse, error) {
	filter, ok, err := s.scopedFilter(actor, "", string(domain.StatusFollowUp))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []transport.LeadResponse{}, nil
	}

	day := date.Format(domain.DateLayout)
	if strictlyBefore {
		filter.DueBefore = day
	} else {
		filter.DueOnOrBefore = day
	}

	leads, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return transport.ToLeadResponses(leads), nil
}
