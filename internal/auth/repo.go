package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workpulse/workpulse/internal/platform/db"
	"github.com/workpulse/workpulse/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	CreateSignup(ctx context.Context, email, passwordHash, userName, companyName string) (*Identity, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an identity by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, COALESCE(employee_id, ''), COALESCE(name, ''), role, org_id FROM identities WHERE email = $1`, email)
	var ident Identity
	if err := row.Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.EmployeeID, &ident.Name, &ident.Role, &ident.OrgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}

// CreateSignup creates an organization and its first ADMIN identity inside a
// single transaction. Either both rows commit or neither does; a duplicate
// email or company name surfaces as shared.ErrDuplicate with no partial
// state left behind.
func (r *PGRepository) CreateSignup(ctx context.Context, email, passwordHash, userName, companyName string) (*Identity, error) {
	var ident Identity
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var orgID int64
		if err := tx.QueryRow(ctx, `INSERT INTO organizations (name) VALUES ($1) RETURNING id`, companyName).Scan(&orgID); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("company name already in use: %w", shared.ErrDuplicate)
			}
			return err
		}

		employeeID := fmt.Sprintf("%s_%d", strings.ToLower(strings.ReplaceAll(userName, " ", "")), orgID)
		row := tx.QueryRow(ctx,
			`INSERT INTO identities (email, password_hash, employee_id, name, role, org_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, email, password_hash, employee_id, name, role, org_id`,
			email, passwordHash, employeeID, userName, shared.RoleAdmin, orgID)
		if err := row.Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.EmployeeID, &ident.Name, &ident.Role, &ident.OrgID); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("email already in use: %w", shared.ErrDuplicate)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

var _ Repository = (*PGRepository)(nil)
