package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FollowupEntry is one immutable row of the follow-up history: the full
// schedule/reschedule trail, kept separate from the activity log so cadence
// can be audited independently of stage movement.
type FollowupEntry struct {
	ID         int64
	LeadID     uuid.UUID
	PrevReason *string
	PrevDate   *string
	PrevTime   *string
	NewReason  *string
	NewDate    *string
	NewTime    *string
	UpdatedBy  uuid.UUID
	Department string
	CreatedAt  time.Time
}

type AppendFollowupParams struct {
	LeadID     uuid.UUID
	PrevReason *string
	PrevDate   *string
	PrevTime   *string
	NewReason  *string
	NewDate    *string
	NewTime    *string
	UpdatedBy  uuid.UUID
	Department string
}

const followupColumns = `id, lead_id, prev_reason, prev_date, prev_time,
		new_reason, new_date, new_time, updated_by, department, created_at`

func appendFollowupTx(ctx context.Context, tx pgx.Tx, params AppendFollowupParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_followup_history (lead_id, prev_reason, prev_date, prev_time,
			new_reason, new_date, new_time, updated_by, department)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, params.LeadID, params.PrevReason, params.PrevDate, params.PrevTime,
		params.NewReason, params.NewDate, params.NewTime, params.UpdatedBy, params.Department)
	return err
}

// FollowupFilter narrows ListFollowupHistory results; zero values are ignored.
type FollowupFilter struct {
	UpdatedBy  *uuid.UUID
	Department string
	From       *time.Time
	To         *time.Time
}

func (r *Repository) ListFollowupHistory(ctx context.Context, leadID uuid.UUID, filter FollowupFilter) ([]FollowupEntry, error) {
	where := []string{"lead_id = $1"}
	args := []interface{}{leadID}

	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UpdatedBy != nil {
		where = append(where, "updated_by = "+arg(*filter.UpdatedBy))
	}
	if filter.Department != "" {
		where = append(where, "department = "+arg(filter.Department))
	}
	if filter.From != nil {
		where = append(where, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "created_at < "+arg(*filter.To))
	}

	query := `SELECT ` + followupColumns + ` FROM lead_followup_history WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]FollowupEntry, 0)
	for rows.Next() {
		entry, err := scanFollowup(rows)
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

func scanFollowup(rows pgx.Rows) (FollowupEntry, error) {
	var entry FollowupEntry
	err := rows.Scan(
		&entry.ID, &entry.LeadID,
		&entry.PrevReason, &entry.PrevDate, &entry.PrevTime,
		&entry.NewReason, &entry.NewDate, &entry.NewTime,
		&entry.UpdatedBy, &entry.Department, &entry.CreatedAt,
	)
	return entry, err
}
