package registry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmployeeNotFound = errors.New("employee not found")

// Employee is one row of the employee roster.
type Employee struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Department string
	RoleID     string
	Active     bool
	CreatedAt  time.Time
}

// Repository reads the employee roster backing assignment checks.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetEmployee(ctx context.Context, id uuid.UUID) (Employee, error) {
	var emp Employee
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, department, role_id, active, created_at
		FROM employees
		WHERE id = $1
	`, id).Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Department, &emp.RoleID, &emp.Active, &emp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	return emp, nil
}

// ListDepartmentEmployees returns the active roster of one department.
func (r *Repository) ListDepartmentEmployees(ctx context.Context, department string) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, department, role_id, active, created_at
		FROM employees
		WHERE department = $1 AND active = true
		ORDER BY name ASC
	`, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Employee, 0)
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Department, &emp.RoleID, &emp.Active, &emp.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, emp)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// EmployeeInDepartment reports whether the employee is an active member of
// the department's roster.
func (r *Repository) EmployeeInDepartment(ctx context.Context, id uuid.UUID, department string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM employees
			WHERE id = $1 AND department = $2 AND active = true
		)
	`, id, department).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
