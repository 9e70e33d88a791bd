package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workpulse/workpulse/internal/platform/db"
	"github.com/workpulse/workpulse/internal/shared"
)

const employeeColumns = `id, email, COALESCE(employee_id, ''), COALESCE(name, ''), COALESCE(department, ''), COALESCE(job_title, ''), COALESCE(employment_type, ''), COALESCE(salary, 0), role, org_id`

// Repository defines persistence operations for the employee directory.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
	ListByOrg(ctx context.Context, orgID int64, limit, offset int) ([]Employee, error)
	CountByOrg(ctx context.Context, orgID int64) (int, error)
	Create(ctx context.Context, e Employee, passwordHash string) (*Employee, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*Employee, error)
	UpdateByAdmin(ctx context.Context, e Employee, passwordHash *string) (*Employee, error)
	GetPasswordHash(ctx context.Context, id int64) (string, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	HasAttendance(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Email, &e.EmployeeID, &e.Name, &e.Department, &e.JobTitle, &e.EmploymentType, &e.Salary, &e.Role, &e.OrgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByID fetches one employee by surrogate id.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM identities WHERE id = $1`, id))
}

// GetByEmployeeID fetches one employee by their employee identifier.
func (r *PGRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM identities WHERE employee_id = $1`, employeeID))
}

// ListByOrg returns one page of an organization's employees.
func (r *PGRepository) ListByOrg(ctx context.Context, orgID int64, limit, offset int) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM identities WHERE org_id = $1 ORDER BY id LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Email, &e.EmployeeID, &e.Name, &e.Department, &e.JobTitle, &e.EmploymentType, &e.Salary, &e.Role, &e.OrgID); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// CountByOrg counts an organization's employees.
func (r *PGRepository) CountByOrg(ctx context.Context, orgID int64) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM identities WHERE org_id = $1`, orgID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Create inserts a new identity.
func (r *PGRepository) Create(ctx context.Context, e Employee, passwordHash string) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO identities (email, password_hash, employee_id, name, department, job_title, employment_type, salary, role, org_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+employeeColumns,
		e.Email, passwordHash, e.EmployeeID, e.Name, e.Department, e.JobTitle, e.EmploymentType, e.Salary, e.Role, e.OrgID)
	created, err := scanEmployee(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email or employee id already in use: %w", shared.ErrDuplicate)
		}
		return nil, err
	}
	return created, nil
}

// UpdateProfile applies a partial self-service profile mutation.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE identities SET
			name = COALESCE($2, name),
			employee_id = COALESCE($3, employee_id),
			department = COALESCE($4, department),
			job_title = COALESCE($5, job_title),
			employment_type = COALESCE($6, employment_type),
			salary = COALESCE($7, salary)
		 WHERE id = $1
		 RETURNING `+employeeColumns,
		id, update.Name, update.EmployeeID, update.Department, update.JobTitle, update.EmploymentType, update.Salary)
	updated, err := scanEmployee(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("employee id already in use: %w", shared.ErrDuplicate)
		}
		return nil, err
	}
	return updated, nil
}

// UpdateByAdmin overwrites the full record; the password only changes when a
// new hash is supplied.
func (r *PGRepository) UpdateByAdmin(ctx context.Context, e Employee, passwordHash *string) (*Employee, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE identities SET
			email = $2, employee_id = $3, name = $4, department = $5,
			job_title = $6, employment_type = $7, salary = $8, role = $9,
			password_hash = COALESCE($10, password_hash)
		 WHERE id = $1
		 RETURNING `+employeeColumns,
		e.ID, e.Email, e.EmployeeID, e.Name, e.Department, e.JobTitle, e.EmploymentType, e.Salary, e.Role, passwordHash)
	updated, err := scanEmployee(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email or employee id already in use: %w", shared.ErrDuplicate)
		}
		return nil, err
	}
	return updated, nil
}

// GetPasswordHash loads the stored bcrypt hash for a password change.
func (r *PGRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password_hash FROM identities WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return hash, nil
}

// UpdatePassword stores a new bcrypt hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE identities SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasAttendance reports whether any attendance event references the identity.
func (r *PGRepository) HasAttendance(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_events WHERE identity_id = $1)`, id).Scan(&exists)
	return exists, err
}

// Delete removes the identity row.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
