package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrStaleLead means the lead's revision moved between the caller's read
	// and this write. The caller should re-read and retry.
	ErrStaleLead = errors.New("lead was modified concurrently")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is the durable lead row. Stage/status are stored as their wire
// strings; the service layer owns the typed view.
type Lead struct {
	ID                 uuid.UUID
	Stage              string
	Status             string
	AssignedEmployeeID *uuid.UUID
	FollowupReason     *string
	FollowupDate       *string
	FollowupTime       *string
	Company            string
	ContactName        string
	ContactPhone       string
	ContactEmail       *string
	Requirement        *string
	CreatedBy          uuid.UUID
	Revision           int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const leadColumns = `id, stage, status, assigned_employee_id,
		followup_reason, followup_date, followup_time,
		company, contact_name, contact_phone, contact_email, requirement,
		created_by, revision, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Stage, &lead.Status, &lead.AssignedEmployeeID,
		&lead.FollowupReason, &lead.FollowupDate, &lead.FollowupTime,
		&lead.Company, &lead.ContactName, &lead.ContactPhone, &lead.ContactEmail, &lead.Requirement,
		&lead.CreatedBy, &lead.Revision, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

type CreateLeadParams struct {
	Stage              string
	AssignedEmployeeID *uuid.UUID
	Company            string
	ContactName        string
	ContactPhone       string
	ContactEmail       *string
	Requirement        *string
	CreatedBy          uuid.UUID
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (stage, status, assigned_employee_id, company, contact_name, contact_phone, contact_email, requirement, created_by)
		VALUES ($1, 'new', $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns,
		params.Stage, params.AssignedEmployeeID, params.Company, params.ContactName,
		params.ContactPhone, params.ContactEmail, params.Requirement, params.CreatedBy,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

// ListFilter narrows List results. Zero values mean "no restriction"; the
// visibility fields mirror policy.VisibleScope.
type ListFilter struct {
	Stage             string
	Status            string
	AssigneeOnly      *uuid.UUID
	IncludeUnassigned bool
	// DueOnOrBefore / DueBefore restrict to follow-up work queues.
	DueOnOrBefore string
	DueBefore     string
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Lead, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Stage != "" {
		where = append(where, "stage = "+arg(filter.Stage))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.AssigneeOnly != nil {
		clause := "assigned_employee_id = " + arg(*filter.AssigneeOnly)
		if filter.IncludeUnassigned {
			clause = "(" + clause + " OR assigned_employee_id IS NULL)"
		}
		where = append(where, clause)
	}
	if filter.DueOnOrBefore != "" {
		where = append(where, "status = 'follow_up' AND followup_date <= "+arg(filter.DueOnOrBefore))
	}
	if filter.DueBefore != "" {
		where = append(where, "status = 'follow_up' AND followup_date < "+arg(filter.DueBefore))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

// ApplyTransitionParams is the complete atomic write for one accepted
// transition: the lead row update, the activity log entry, and (optionally)
// the follow-up history entry.
type ApplyTransitionParams struct {
	LeadID           uuid.UUID
	ExpectedRevision int64

	NewStage           string
	NewStatus          string
	NewAssigneeID      *uuid.UUID
	NewFollowupReason  *string
	NewFollowupDate    *string
	NewFollowupTime    *string

	Activity AppendActivityParams
	Followup *AppendFollowupParams
}

// ApplyTransition performs the transition in a single transaction with an
// optimistic revision check. Returns ErrStaleLead when the revision moved,
// ErrNotFound when the lead does not exist. Partial application is never
// observable: the row update and the log appends commit together.
func (r *Repository) ApplyTransition(ctx context.Context, params ApplyTransitionParams) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET stage = $3,
			status = $4,
			assigned_employee_id = $5,
			followup_reason = $6,
			followup_date = $7,
			followup_time = $8,
			revision = revision + 1,
			updated_at = now()
		WHERE id = $1 AND revision = $2
		RETURNING `+leadColumns,
		params.LeadID, params.ExpectedRevision,
		params.NewStage, params.NewStatus, params.NewAssigneeID,
		params.NewFollowupReason, params.NewFollowupDate, params.NewFollowupTime,
	)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing lead from a concurrent write.
			var exists bool
			if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, params.LeadID).Scan(&exists); checkErr != nil {
				return Lead{}, checkErr
			}
			if !exists {
				return Lead{}, ErrNotFound
			}
			return Lead{}, ErrStaleLead
		}
		return Lead{}, err
	}

	if err := appendActivityTx(ctx, tx, params.Activity); err != nil {
		return Lead{}, err
	}

	if params.Followup != nil {
		if err := appendFollowupTx(ctx, tx, *params.Followup); err != nil {
			return Lead{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}

	return lead, nil
}
