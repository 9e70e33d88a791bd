package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/workpulse/workpulse/internal/org"
	"github.com/workpulse/workpulse/internal/shared"
)

var (
	// ErrMissingLocation is returned when the caller's organization has a
	// geofence configured but the check-in carries no coordinates.
	ErrMissingLocation = errors.New("attendance: location required for check-in")
	// ErrOutOfGeofence is returned when the reported location falls outside
	// the organization's allowed radius. Nothing is persisted.
	ErrOutOfGeofence = errors.New("attendance: outside the allowed check-in area")
	// ErrUnknownEventType is returned for types other than CHECK_IN/CHECK_OUT.
	ErrUnknownEventType = errors.New("attendance: unknown event type")
)

// RecordInput is one inbound check-in/out request.
type RecordInput struct {
	EmployeeID string
	Type       EventType
	Latitude   *float64
	Longitude  *float64
}

// Service validates and persists attendance events.
type Service struct {
	repo Repository
	orgs org.Repository
}

// NewService constructs a new Service.
func NewService(repo Repository, orgs org.Repository) *Service {
	return &Service{repo: repo, orgs: orgs}
}

// Record validates input against the caller's organization geofence and
// appends the event. The organization is fetched explicitly by id before
// validation; there is no lazy navigation hiding I/O. On any validation
// failure the ledger is untouched.
func (s *Service) Record(ctx context.Context, p shared.Principal, input RecordInput) (Event, error) {
	if !input.Type.Valid() {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, input.Type)
	}
	if input.EmployeeID != p.EmployeeID {
		return Event{}, fmt.Errorf("attendance: employee id does not match the authenticated identity: %w", shared.ErrForbidden)
	}

	if p.OrgID != nil {
		o, err := s.orgs.GetByID(ctx, *p.OrgID)
		if err != nil {
			return Event{}, fmt.Errorf("attendance: resolve organization: %w", err)
		}
		if fence := o.Fence(); fence != nil {
			if input.Latitude == nil || input.Longitude == nil {
				return Event{}, ErrMissingLocation
			}
			if !fence.Contains(*input.Latitude, *input.Longitude) {
				return Event{}, ErrOutOfGeofence
			}
		}
	}

	event := Event{
		IdentityID: p.IdentityID,
		EmployeeID: p.EmployeeID,
		Type:       input.Type,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
	}
	committed, err := s.repo.Insert(ctx, event)
	if err != nil {
		return Event{}, fmt.Errorf("attendance: persist event: %w", err)
	}
	return committed, nil
}

// History returns the chronological attendance ledger for one employee.
// The caller must be that employee, or an ADMIN of the same organization.
// An employee in another tenant is reported as not found, same as a
// nonexistent one, so the endpoint never confirms existence across tenants.
func (s *Service) History(ctx context.Context, p shared.Principal, employeeID string) ([]Event, error) {
	if employeeID != p.EmployeeID {
		_, targetOrg, err := s.repo.GetEmployeeOrg(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if p.OrgID == nil || targetOrg == nil || *targetOrg != *p.OrgID {
			return nil, fmt.Errorf("attendance: no such employee in this tenant: %w", shared.ErrNotFound)
		}
		if !p.IsAdmin() {
			return nil, fmt.Errorf("attendance: history restricted to the owner or an admin: %w", shared.ErrForbidden)
		}
	}
	return s.repo.ListByEmployeeID(ctx, employeeID)
}
