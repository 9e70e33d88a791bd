package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/workpulse/workpulse/internal/platform/httpx"
	"github.com/workpulse/workpulse/internal/shared"
)

// ErrPasswordMismatch is returned when the old password does not verify
// during a password change.
var ErrPasswordMismatch = fmt.Errorf("old password does not match: %w", httpx.ErrValidation)

// Service wraps directory business rules. Every multi-tenant read and write
// takes the caller's principal and resolves the organization from it; there
// is no implicit session binding.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Me returns the caller's own directory entry.
func (s *Service) Me(ctx context.Context, p shared.Principal) (*Employee, error) {
	return s.repo.GetByID(ctx, p.IdentityID)
}

// UpdateMe applies a partial self-service profile update.
func (s *Service) UpdateMe(ctx context.Context, p shared.Principal, update ProfileUpdate) (*Employee, error) {
	return s.repo.UpdateProfile(ctx, p.IdentityID, update)
}

// ChangePassword verifies the old password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, p shared.Principal, oldPassword, newPassword string) error {
	hash, err := s.repo.GetPasswordHash(ctx, p.IdentityID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		return ErrPasswordMismatch
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, p.IdentityID, string(newHash))
}

// GetByEmployeeID returns a directory entry visible to the caller: lookups
// outside the caller's organization answer not-found rather than leaking
// another tenant's data.
func (s *Service) GetByEmployeeID(ctx context.Context, p shared.Principal, employeeID string) (*Employee, error) {
	e, err := s.repo.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !sameOrg(p, e.OrgID) {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

// List returns one page of the caller organization's directory.
func (s *Service) List(ctx context.Context, p shared.Principal, page, perPage int) ([]Employee, shared.Pagination, error) {
	if p.OrgID == nil {
		return nil, shared.Pagination{}, fmt.Errorf("users: caller has no organization: %w", shared.ErrNotFound)
	}
	total, err := s.repo.CountByOrg(ctx, *p.OrgID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	employees, err := s.repo.ListByOrg(ctx, *p.OrgID, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return employees, pagination, nil
}

// CreateInput carries an admin-created employee record.
type CreateInput struct {
	Email          string
	Password       string
	EmployeeID     string
	Name           string
	Department     string
	JobTitle       string
	EmploymentType string
	Salary         float64
	Role           string
}

// Create registers a new employee inside the caller's organization.
func (s *Service) Create(ctx context.Context, p shared.Principal, input CreateInput) (*Employee, error) {
	if p.OrgID == nil {
		return nil, fmt.Errorf("users: caller has no organization: %w", shared.ErrNotFound)
	}
	role := input.Role
	if role == "" {
		role = shared.RoleEmployee
	}
	if role != shared.RoleAdmin && role != shared.RoleEmployee {
		return nil, fmt.Errorf("users: unknown role %q: %w", role, httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.Create(ctx, Employee{
		Email:          input.Email,
		EmployeeID:     input.EmployeeID,
		Name:           input.Name,
		Department:     input.Department,
		JobTitle:       input.JobTitle,
		EmploymentType: input.EmploymentType,
		Salary:         input.Salary,
		Role:           role,
		OrgID:          p.OrgID,
	}, string(hash))
}

// UpdateInput carries an admin update; Password empty means unchanged.
type UpdateInput struct {
	Email          string
	Password       string
	EmployeeID     string
	Name           string
	Department     string
	JobTitle       string
	EmploymentType string
	Salary         float64
	Role           string
}

// Update overwrites an employee record within the caller's organization.
func (s *Service) Update(ctx context.Context, p shared.Principal, id int64, input UpdateInput) (*Employee, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sameOrg(p, target.OrgID) {
		return nil, fmt.Errorf("users: employee belongs to another tenant: %w", shared.ErrForbidden)
	}
	if input.Role != shared.RoleAdmin && input.Role != shared.RoleEmployee {
		return nil, fmt.Errorf("users: unknown role %q: %w", input.Role, httpx.ErrValidation)
	}

	var hash *string
	if input.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("users: hash password: %w", err)
		}
		s := string(h)
		hash = &s
	}

	return s.repo.UpdateByAdmin(ctx, Employee{
		ID:             id,
		Email:          input.Email,
		EmployeeID:     input.EmployeeID,
		Name:           input.Name,
		Department:     input.Department,
		JobTitle:       input.JobTitle,
		EmploymentType: input.EmploymentType,
		Salary:         input.Salary,
		Role:           input.Role,
		OrgID:          target.OrgID,
	}, hash)
}

// Delete removes an employee within the caller's organization. Identities
// referenced by attendance history are kept: the ledger must stay
// attributable.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id int64) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sameOrg(p, target.OrgID) {
		return fmt.Errorf("users: employee belongs to another tenant: %w", shared.ErrForbidden)
	}
	hasHistory, err := s.repo.HasAttendance(ctx, id)
	if err != nil {
		return err
	}
	if hasHistory {
		return fmt.Errorf("users: employee has attendance history: %w", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

func sameOrg(p shared.Principal, orgID *int64) bool {
	return p.OrgID != nil && orgID != nil && *p.OrgID == *orgID
}
