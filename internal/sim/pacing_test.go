package sim

import (
	"math"
	"testing"
	"time"

	"buspass/internal/domain"
	"buspass/internal/geo"
)

// Straight east-west path along the equator, roughly 111 km per degree.
func equatorPath(points int) domain.Path {
	path := make(domain.Path, points)
	for i := range path {
		path[i] = domain.GeoPoint{Lat: 0, Lng: float64(i) * 0.01}
	}
	return path
}

func TestSpeedPacingAdvancesByBudget(t *testing.T) {
	t.Parallel()

	path := equatorPath(100)
	pacing := SpeedPacing{SpeedKmh: 40}
	cur := NewCursor(path)

	cur = pacing.Advance(path, cur, 10*time.Second)

	// 40 km/h over 10s is about 111 meters.
	travelled := geo.DistanceKm(path[0], cur.Position)
	want := 40.0 * 10.0 / 3600.0
	if math.Abs(travelled-want) > want*0.01 {
		t.Errorf("travelled %.4f km, want about %.4f km", travelled, want)
	}
	if pacing.Done(path, cur) {
		t.Error("pacing done after a single short tick")
	}
}

func TestSpeedPacingReachesEndOfPath(t *testing.T) {
	t.Parallel()

	path := equatorPath(5)
	pacing := SpeedPacing{SpeedKmh: 40}
	cur := NewCursor(path)

	// A huge elapsed time overshoots the whole path; the cursor must clamp
	// to the last point instead of walking past it.
	cur = pacing.Advance(path, cur, 24*time.Hour)

	if !pacing.Done(path, cur) {
		t.Fatalf("pacing not done at index %d of %d points", cur.Index, len(path))
	}
	if cur.Position != path[len(path)-1] {
		t.Errorf("position = %+v, want last point %+v", cur.Position, path[len(path)-1])
	}
}

func TestSpeedPacingAccumulatesAcrossTicks(t *testing.T) {
	t.Parallel()

	path := equatorPath(100)
	pacing := SpeedPacing{SpeedKmh: 40}

	single := pacing.Advance(path, NewCursor(path), 60*time.Second)

	split := NewCursor(path)
	for i := 0; i < 6; i++ {
		split = pacing.Advance(path, split, 10*time.Second)
	}

	if d := geo.DistanceMeters(single.Position, split.Position); d > 50 {
		t.Errorf("one 60s tick and six 10s ticks diverge by %.1f m", d)
	}
}

func TestFixedDurationPacingFractions(t *testing.T) {
	t.Parallel()

	path := domain.Path{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	pacing := FixedDurationPacing{LegDuration: 10 * time.Second}
	cur := NewCursor(path)

	cur = pacing.Advance(path, cur, 5*time.Second)
	if math.Abs(cur.Progress-0.5) > 1e-9 {
		t.Errorf("progress = %f, want 0.5", cur.Progress)
	}
	if math.Abs(cur.Position.Lng-0.5) > 1e-9 {
		t.Errorf("position lng = %f, want 0.5", cur.Position.Lng)
	}
	if pacing.Done(path, cur) {
		t.Error("done at half progress")
	}

	cur = pacing.Advance(path, cur, 5*time.Second)
	if !pacing.Done(path, cur) {
		t.Errorf("not done at progress %f", cur.Progress)
	}
	if cur.Position != path[1] {
		t.Errorf("position = %+v, want endpoint %+v", cur.Position, path[1])
	}
}

func TestFixedDurationPacingClampsOvershoot(t *testing.T) {
	t.Parallel()

	path := domain.Path{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	pacing := FixedDurationPacing{LegDuration: 10 * time.Second}

	cur := pacing.Advance(path, NewCursor(path), time.Minute)
	if cur.Progress != 1 {
		t.Errorf("progress = %f, want clamped to 1", cur.Progress)
	}
	if cur.Position != path[1] {
		t.Errorf("position = %+v, want endpoint", cur.Position)
	}
}

func TestPacingOnEmptyPath(t *testing.T) {
	t.Parallel()

	var empty domain.Path
	speed := SpeedPacing{SpeedKmh: 40}
	fixed := FixedDurationPacing{LegDuration: 10 * time.Second}

	if !speed.Done(empty, speed.Advance(empty, NewCursor(empty), time.Second)) {
		t.Error("speed pacing not done on empty path")
	}
	if !fixed.Done(empty, fixed.Advance(empty, NewCursor(empty), time.Second)) {
		t.Error("fixed pacing not done on empty path")
	}
}
