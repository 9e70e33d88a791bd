// Package geofence computes great-circle distances and tests whether a
// reported coordinate falls inside an organization's allowed radius.
// Everything here is pure; no I/O, no state.
package geofence

import "math"

// earthRadiusM is the mean Earth radius in meters.
const earthRadiusM = 6371000.0

// DistanceMeters returns the haversine distance between two points given in
// decimal degrees. Inputs are not clamped: out-of-range coordinates simply
// produce a large distance, matching the permissive handling upstream.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// Fence is a circular boundary anchored at a point. Radius is in meters.
type Fence struct {
	Lat     float64
	Lon     float64
	RadiusM float64
}

// Contains reports whether the point lies within the fence. The boundary is
// inclusive: a point at exactly RadiusM meters is inside.
func (f Fence) Contains(lat, lon float64) bool {
	return DistanceMeters(f.Lat, f.Lon, lat, lon) <= f.RadiusM
}
