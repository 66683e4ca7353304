// Package sim runs the per-trip vehicle simulation: one engine goroutine per
// active trip advancing the bus along its path on a fixed tick, charging the
// fare at the origin and archiving the trip at the destination.
package sim

import (
	"time"

	"buspass/internal/domain"
	"buspass/internal/geo"
)

// Cursor tracks how far along the current leg the vehicle has travelled.
// DistanceKm drives distance-budget pacing, Progress drives fixed-duration
// pacing; each strategy reads only its own field. Index is the last path
// point reached.
type Cursor struct {
	DistanceKm float64
	Progress   float64
	Index      int
	Position   domain.GeoPoint
}

// NewCursor starts a cursor at the first point of the path.
func NewCursor(path domain.Path) Cursor {
	c := Cursor{}
	if len(path) > 0 {
		c.Position = path[0]
	}
	return c
}

// Pacing decides how far the vehicle moves along a path per tick.
type Pacing interface {
	// Advance moves the cursor along the path by the given elapsed wall time.
	Advance(path domain.Path, cur Cursor, elapsed time.Duration) Cursor

	// Done reports whether the cursor has reached the end of the path.
	Done(path domain.Path, cur Cursor) bool
}

// SpeedPacing moves a distance budget of speed * elapsed per tick, walking
// path segments so the motion follows the road geometry.
type SpeedPacing struct {
	SpeedKmh float64
}

func (p SpeedPacing) Advance(path domain.Path, cur Cursor, elapsed time.Duration) Cursor {
	// Accumulate total distance so progress inside a segment survives ticks
	// whose budget is shorter than the segment.
	cur.DistanceKm += p.SpeedKmh * elapsed.Hours()
	pos, idx := geo.AdvanceByDistance(path, 0, cur.DistanceKm)
	cur.Index = idx
	cur.Position = pos
	return cur
}

func (p SpeedPacing) Done(path domain.Path, cur Cursor) bool {
	return len(path) == 0 || cur.Index >= len(path)-1
}

// FixedDurationPacing stretches the whole leg over a fixed wall-clock
// duration regardless of its geographic length. Used for demos and tests
// where trips must finish quickly.
type FixedDurationPacing struct {
	LegDuration time.Duration
}

func (p FixedDurationPacing) Advance(path domain.Path, cur Cursor, elapsed time.Duration) Cursor {
	if p.LegDuration <= 0 {
		cur.Progress = 1
	} else {
		cur.Progress += elapsed.Seconds() / p.LegDuration.Seconds()
		if cur.Progress > 1 {
			cur.Progress = 1
		}
	}
	cur.Position = geo.PointAtFraction(path, cur.Progress)
	return cur
}

func (p FixedDurationPacing) Done(path domain.Path, cur Cursor) bool {
	return len(path) == 0 || cur.Progress >= 1
}

var (
	_ Pacing = SpeedPacing{}
	_ Pacing = FixedDurationPacing{}
)
