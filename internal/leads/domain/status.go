package domain

import "fmt"

// Status is a lead's disposition within its current stage. It is an axis
// independent of Stage.
type Status string

const (
	StatusNew      Status = "new"
	StatusFollowUp Status = "follow_up"
	StatusLost     Status = "lost"
)

var knownStatuses = map[Status]struct{}{
	StatusNew:      {},
	StatusFollowUp: {},
	StatusLost:     {},
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := knownStatuses[status]; !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// IsTerminalStatus reports whether the status has no ordinary outbound
// transition. Only the privileged revert (lost → new) exits it.
func IsTerminalStatus(s Status) bool {
	return s == StatusLost
}

// ChangeType labels the kind of mutation an accepted transition applied.
// Every activity log entry carries exactly one of these.
type ChangeType string

const (
	ChangeCreated         ChangeType = "created"
	ChangeStatusChanged   ChangeType = "status_changed"
	ChangeStageChanged    ChangeType = "stage_changed"
	ChangeAssigneeChanged ChangeType = "assignee_changed"
)
