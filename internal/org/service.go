package org

import (
	"context"
	"fmt"

	"github.com/workpulse/workpulse/internal/platform/httpx"
	"github.com/workpulse/workpulse/internal/shared"
)

// Service wraps tenant business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the caller's own organization.
func (s *Service) Get(ctx context.Context, p shared.Principal) (*Organization, error) {
	if p.OrgID == nil {
		return nil, fmt.Errorf("org: caller has no organization: %w", shared.ErrNotFound)
	}
	return s.repo.GetByID(ctx, *p.OrgID)
}

// UpdateGeofence sets or clears the caller organization's geofence. The
// organization id always comes from the bound principal, never from the
// request, so a caller can only ever mutate its own tenant. The three fields
// must be all present (set) or all absent (clear); anything in between is
// rejected.
func (s *Service) UpdateGeofence(ctx context.Context, p shared.Principal, lat, lon, radius *float64) (*Organization, error) {
	if p.OrgID == nil {
		return nil, fmt.Errorf("org: caller has no organization: %w", shared.ErrNotFound)
	}

	set := 0
	for _, v := range []*float64{lat, lon, radius} {
		if v != nil {
			set++
		}
	}
	if set != 0 && set != 3 {
		return nil, fmt.Errorf("org: latitude, longitude and radius must be provided together: %w", httpx.ErrValidation)
	}
	if radius != nil && *radius <= 0 {
		return nil, fmt.Errorf("org: radius must be positive: %w", httpx.ErrValidation)
	}

	return s.repo.UpdateGeofence(ctx, *p.OrgID, lat, lon, radius)
}
