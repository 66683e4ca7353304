package geo

import (
	"math"
	"testing"

	"buspass/internal/domain"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      domain.GeoPoint
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         domain.GeoPoint{Lat: -27.0945, Lng: -52.6166},
			b:         domain.GeoPoint{Lat: -27.0945, Lng: -52.6166},
			wantKm:    0,
			tolerance: 0.0001,
		},
		{
			name:      "one degree of longitude at the equator",
			a:         domain.GeoPoint{Lat: 0, Lng: 0},
			b:         domain.GeoPoint{Lat: 0, Lng: 1},
			wantKm:    111.19,
			tolerance: 0.56, // 0.5%
		},
		{
			name:      "Chapeco to Florianopolis (~460km)",
			a:         domain.GeoPoint{Lat: -27.0945, Lng: -52.6166},
			b:         domain.GeoPoint{Lat: -27.5954, Lng: -48.5480},
			wantKm:    460,
			tolerance: 15,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := DistanceKm(tc.a, tc.b)
			if math.Abs(got-tc.wantKm) > tc.tolerance {
				t.Errorf("DistanceKm() = %.4f, want %.4f ± %.4f", got, tc.wantKm, tc.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	t.Parallel()

	a := domain.GeoPoint{Lat: -27.1, Lng: -52.6}
	b := domain.GeoPoint{Lat: -26.3, Lng: -48.8}

	if DistanceKm(a, b) != DistanceKm(b, a) {
		t.Errorf("distance not symmetric: %v vs %v", DistanceKm(a, b), DistanceKm(b, a))
	}
}

func TestAdvanceByDistance_ZeroBudget(t *testing.T) {
	t.Parallel()

	path := domain.Path{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.1},
		{Lat: 0, Lng: 0.2},
	}

	pos, index := AdvanceByDistance(path, 0, 0)
	if pos != path[0] {
		t.Errorf("expected position unchanged, got %+v", pos)
	}
	if index != 0 {
		t.Errorf("expected index 0, got %d", index)
	}
}

func TestAdvanceByDistance_BudgetExceedsPath(t *testing.T) {
	t.Parallel()

	path := domain.Path{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.1},
		{Lat: 0, Lng: 0.2},
	}

	pos, index := AdvanceByDistance(path, 0, 10000)
	if pos != path[len(path)-1] {
		t.Errorf("expected final point, got %+v", pos)
	}
	if index != len(path)-1 {
		t.Errorf("expected index clamped to %d, got %d", len(path)-1, index)
	}
}

func TestAdvanceByDistance_InterpolatesWithinSegment(t *testing.T) {
	t.Parallel()

	// One degree of longitude at the equator is ~111.19km; walk half of it.
	path := domain.Path{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
	}

	pos, index := AdvanceByDistance(path, 0, 55.6)
	if index != 0 {
		t.Fatalf("expected to stay in segment 0, got index %d", index)
	}
	if math.Abs(pos.Lng-0.5) > 0.01 {
		t.Errorf("expected lng ≈ 0.5, got %.4f", pos.Lng)
	}
}

func TestAdvanceByDistance_ConsumesWholeSegments(t *testing.T) {
	t.Parallel()

	path := domain.Path{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.1},
		{Lat: 0, Lng: 0.2},
		{Lat: 0, Lng: 0.3},
	}
	segment := DistanceKm(path[0], path[1])

	// Budget of 1.5 segments must land mid-way through the second segment.
	pos, index := AdvanceByDistance(path, 0, segment*1.5)
	if index != 1 {
		t.Fatalf("expected index 1, got %d", index)
	}
	if math.Abs(pos.Lng-0.15) > 0.001 {
		t.Errorf("expected lng ≈ 0.15, got %.4f", pos.Lng)
	}
}

func TestDistanceAlongKm(t *testing.T) {
	t.Parallel()

	path := domain.Path{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.1},
		{Lat: 0, Lng: 0.2},
		{Lat: 0, Lng: 0.3},
	}
	segment := DistanceKm(path[0], path[1])

	// A position just off the third vertex resolves to two segments in.
	got := DistanceAlongKm(path, domain.GeoPoint{Lat: 0.001, Lng: 0.2})
	if math.Abs(got-2*segment) > 0.001 {
		t.Errorf("DistanceAlongKm() = %.4f, want %.4f", got, 2*segment)
	}

	if got := DistanceAlongKm(path, path[0]); got != 0 {
		t.Errorf("at start: DistanceAlongKm() = %.4f, want 0", got)
	}
	if got := DistanceAlongKm(nil, domain.GeoPoint{}); got != 0 {
		t.Errorf("empty path: DistanceAlongKm() = %.4f, want 0", got)
	}
}

func TestPointAtFraction_Boundaries(t *testing.T) {
	t.Parallel()

	path := domain.Path{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	}

	if got := PointAtFraction(path, -0.5); got != path[0] {
		t.Errorf("progress < 0: expected first point, got %+v", got)
	}
	if got := PointAtFraction(path, 0); got != path[0] {
		t.Errorf("progress 0: expected first point, got %+v", got)
	}
	if got := PointAtFraction(path, 1); got != path[2] {
		t.Errorf("progress 1: expected last point, got %+v", got)
	}
	if got := PointAtFraction(path, 2); got != path[2] {
		t.Errorf("progress > 1: expected last point, got %+v", got)
	}

	mid := PointAtFraction(path, 0.5)
	if math.Abs(mid.Lng-1.0) > 1e-9 {
		t.Errorf("progress 0.5: expected lng 1.0, got %.6f", mid.Lng)
	}

	quarter := PointAtFraction(path, 0.25)
	if math.Abs(quarter.Lng-0.5) > 1e-9 {
		t.Errorf("progress 0.25: expected lng 0.5, got %.6f", quarter.Lng)
	}
}

func TestPointAtFraction_SinglePointPath(t *testing.T) {
	t.Parallel()

	path := domain.Path{{Lat: 1, Lng: 2}}
	for _, p := range []float64{0, 0.5, 1} {
		if got := PointAtFraction(path, p); got != path[0] {
			t.Errorf("progress %.1f: expected constant position, got %+v", p, got)
		}
	}
}

func TestSyntheticPath(t *testing.T) {
	t.Parallel()

	start := domain.GeoPoint{Lat: 0, Lng: 0}
	end := domain.GeoPoint{Lat: 1, Lng: 1}

	path := domain.SyntheticPath(start, end, 30)
	if len(path) != 31 {
		t.Fatalf("expected 31 points, got %d", len(path))
	}
	if path[0] != start {
		t.Errorf("expected first point %+v, got %+v", start, path[0])
	}
	if path[30] != end {
		t.Errorf("expected last point %+v, got %+v", end, path[30])
	}
}
