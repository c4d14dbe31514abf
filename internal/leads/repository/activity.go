package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActivityEntry is one immutable row of the activity log. Entries are only
// ever appended by the transition engine; there is no update or delete path.
type ActivityEntry struct {
	ID          int64
	LeadID      uuid.UUID
	ChangeType  string
	OldStage    string
	NewStage    string
	OldStatus   string
	NewStatus   string
	OldAssignee *uuid.UUID
	NewAssignee *uuid.UUID
	Reason      *string
	ActorID     uuid.UUID
	ActorRole   string
	CreatedAt   time.Time
}

type AppendActivityParams struct {
	LeadID      uuid.UUID
	ChangeType  string
	OldStage    string
	NewStage    string
	OldStatus   string
	NewStatus   string
	OldAssignee *uuid.UUID
	NewAssignee *uuid.UUID
	Reason      *string
	ActorID     uuid.UUID
	ActorRole   string
}

const activityColumns = `id, lead_id, change_type, old_stage, new_stage, old_status, new_status,
		old_assignee_id, new_assignee_id, reason, actor_id, actor_role, created_at`

func appendActivityTx(ctx context.Context, tx pgx.Tx, params AppendActivityParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_activity_log (lead_id, change_type, old_stage, new_stage, old_status, new_status,
			old_assignee_id, new_assignee_id, reason, actor_id, actor_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, params.LeadID, params.ChangeType, params.OldStage, params.NewStage, params.OldStatus, params.NewStatus,
		params.OldAssignee, params.NewAssignee, params.Reason, params.ActorID, params.ActorRole)
	return err
}

// AppendActivity writes a standalone activity entry outside a lead-row
// transaction. Used for lead creation, where the insert and the entry are
// written by the same request but no revision check applies.
func (r *Repository) AppendActivity(ctx context.Context, params AppendActivityParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_activity_log (lead_id, change_type, old_stage, new_stage, old_status, new_status,
			old_assignee_id, new_assignee_id, reason, actor_id, actor_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, params.LeadID, params.ChangeType, params.OldStage, params.NewStage, params.OldStatus, params.NewStatus,
		params.OldAssignee, params.NewAssignee, params.Reason, params.ActorID, params.ActorRole)
	return err
}

func scanActivity(rows pgx.Rows) (ActivityEntry, error) {
	var entry ActivityEntry
	err := rows.Scan(
		&entry.ID, &entry.LeadID, &entry.ChangeType, &entry.OldStage, &entry.NewStage,
		&entry.OldStatus, &entry.NewStatus, &entry.OldAssignee, &entry.NewAssignee,
		&entry.Reason, &entry.ActorID, &entry.ActorRole, &entry.CreatedAt,
	)
	return entry, err
}

func (r *Repository) ListActivityByLead(ctx context.Context, leadID uuid.UUID) ([]ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+`
		FROM lead_activity_log
		WHERE lead_id = $1
		ORDER BY id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivity(rows)
}

// ActivityFilter narrows ListActivity results; zero values are ignored.
type ActivityFilter struct {
	ActorID *uuid.UUID
	Stage   string
	From    *time.Time
	To      *time.Time
}

// ListActivity queries the ledger across leads, used to reconstruct who
// moved which lead and why within a department or time window.
func (r *Repository) ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityEntry, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActorID != nil {
		where = append(where, "actor_id = "+arg(*filter.ActorID))
	}
	if filter.Stage != "" {
		where = append(where, "new_stage = "+arg(filter.Stage))
	}
	if filter.From != nil {
		where = append(where, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "created_at < "+arg(*filter.To))
	}

	query := `SELECT ` + activityColumns + ` FROM lead_activity_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivity(rows)
}

func collectActivity(rows pgx.Rows) ([]ActivityEntry, error) {
	entries := make([]ActivityEntry, 0)
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}
