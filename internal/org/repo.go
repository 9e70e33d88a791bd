package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workpulse/workpulse/internal/shared"
)

// Repository defines persistence operations for organizations.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Organization, error)
	UpdateGeofence(ctx context.Context, id int64, lat, lon, radius *float64) (*Organization, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetByID fetches an organization by surrogate id.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Organization, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, latitude, longitude, geofence_radius_m FROM organizations WHERE id = $1`, id)
	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Latitude, &o.Longitude, &o.GeofenceRadiusM); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// UpdateGeofence persists the anchor and radius, returning the stored row.
func (r *PGRepository) UpdateGeofence(ctx context.Context, id int64, lat, lon, radius *float64) (*Organization, error) {
	row := r.pool.QueryRow(ctx, `UPDATE organizations SET latitude = $2, longitude = $3, geofence_radius_m = $4 WHERE id = $1 RETURNING id, name, latitude, longitude, geofence_radius_m`, id, lat, lon, radius)
	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Latitude, &o.Longitude, &o.GeofenceRadiusM); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

var _ Repository = (*PGRepository)(nil)
