package domain

import (
	"strings"
	"time"

	"leadflow_backend/platform/apperr"
)

const (
	// DateLayout is the wire and storage format for follow-up dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire and storage format for follow-up times.
	TimeLayout = "15:04"
)

// FollowUp is a scheduled future contact attempt. A lead carries one iff its
// status is follow_up.
type FollowUp struct {
	Reason string `json:"reason"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// ParseFollowUp validates and normalizes a schedule/reschedule payload.
// All three fields are required; the date must parse and must not be in the
// past relative to now (same-day scheduling is allowed).
func ParseFollowUp(reason, date, timeOfDay string, now time.Time) (FollowUp, error) {
	fu := FollowUp{
		Reason: strings.TrimSpace(reason),
		Date:   strings.TrimSpace(date),
		Time:   strings.TrimSpace(timeOfDay),
	}

	if fu.Reason == "" {
		return FollowUp{}, apperr.Validation("follow-up reason is required").WithCode(CodeMissingPayload)
	}
	if fu.Date == "" {
		return FollowUp{}, apperr.Validation("follow-up date is required").WithCode(CodeMissingPayload)
	}
	if fu.Time == "" {
		return FollowUp{}, apperr.Validation("follow-up time is required").WithCode(CodeMissingPayload)
	}

	day, err := time.ParseInLocation(DateLayout, fu.Date, now.Location())
	if err != nil {
		return FollowUp{}, apperr.Validation("follow-up date must be formatted as " + DateLayout).WithCode(CodeMissingPayload)
	}
	if _, err := time.Parse(TimeLayout, fu.Time); err != nil {
		return FollowUp{}, apperr.Validation("follow-up time must be formatted as " + TimeLayout).WithCode(CodeMissingPayload)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return FollowUp{}, apperr.Validation("follow-up date must not be in the past").WithCode(CodeMissingPayload)
	}

	return fu, nil
}

// DueOn reports whether the follow-up is due on the given date: its date is
// on or before the query date.
func (f FollowUp) DueOn(date time.Time) bool {
	day, err := time.ParseInLocation(DateLayout, f.Date, date.Location())
	if err != nil {
		return false
	}
	query := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return !day.After(query)
}

// OverdueOn reports whether the follow-up date is strictly before the given date.
func (f FollowUp) OverdueOn(date time.Time) bool {
	day, err := time.ParseInLocation(DateLayout, f.Date, date.Location())
	if err != nil {
		return false
	}
	query := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Before(query)
}
