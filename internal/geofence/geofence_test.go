package geofence_test

import (
	"math"
	"testing"

	"github.com/workpulse/workpulse/internal/geofence"
	_ "github.com/workpulse/workpulse/testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := geofence.DistanceMeters(37.5665, 126.9780, 37.5665, 126.9780); d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := geofence.DistanceMeters(37.5665, 126.9780, 35.1796, 129.0756)
	b := geofence.DistanceMeters(35.1796, 129.0756, 37.5665, 126.9780)
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// Seoul to Busan, roughly 325 km great-circle.
	d := geofence.DistanceMeters(37.5665, 126.9780, 35.1796, 129.0756)
	if d < 300_000 || d > 350_000 {
		t.Fatalf("unexpected distance: %f", d)
	}
}

func TestFenceContains(t *testing.T) {
	fence := geofence.Fence{Lat: 37.5, Lon: 127.0, RadiusM: 100}

	// Roughly 80 m north of the anchor.
	if !fence.Contains(37.50072, 127.0) {
		t.Fatalf("expected point ~80m away to be inside a 100m fence")
	}
	// Roughly 890 m north of the anchor.
	if fence.Contains(37.508, 127.0) {
		t.Fatalf("expected point ~890m away to be outside a 100m fence")
	}
}

func TestFenceBoundaryInclusive(t *testing.T) {
	fence := geofence.Fence{Lat: 0, Lon: 0, RadiusM: geofence.DistanceMeters(0, 0, 0, 0.001)}
	if !fence.Contains(0, 0.001) {
		t.Fatalf("expected a point at exactly the radius to be inside")
	}
}

func TestFenceCenter(t *testing.T) {
	fence := geofence.Fence{Lat: 37.5, Lon: 127.0, RadiusM: 1}
	if !fence.Contains(37.5, 127.0) {
		t.Fatalf("expected anchor point to be inside its own fence")
	}
}
