package org

import "github.com/workpulse/workpulse/internal/geofence"

// Organization is a tenant. The three geofence fields are either all set or
// all nil; partial configuration is rejected at the point of update.
type Organization struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	GeofenceRadiusM *float64 `json:"geofenceRadius,omitempty"`
}

// Fence returns the configured geofence, or nil when the organization has no
// location restriction.
func (o Organization) Fence() *geofence.Fence {
	if o.Latitude == nil || o.Longitude == nil || o.GeofenceRadiusM == nil {
		return nil
	}
	return &geofence.Fence{Lat: *o.Latitude, Lon: *o.Longitude, RadiusM: *o.GeofenceRadiusM}
}
