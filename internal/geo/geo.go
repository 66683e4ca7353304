// Package geo contains pure geographic computation helpers. All proximity
// decisions in the simulation engine are based on these functions.
package geo

import (
	"math"

	"buspass/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance in kilometres
// between two points.
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DistanceMeters returns the haversine distance in metres.
func DistanceMeters(a, b domain.GeoPoint) float64 {
	return DistanceKm(a, b) * 1000
}

// AdvanceByDistance walks forward along path segments starting at index,
// consuming budgetKm. When a whole segment fits in the remaining budget the
// cursor advances to the next point; otherwise the returned position is the
// linear interpolation within the current segment. Reaching the end of the
// path returns the final point with the index clamped to it.
func AdvanceByDistance(path domain.Path, index int, budgetKm float64) (domain.GeoPoint, int) {
	if len(path) == 0 {
		return domain.GeoPoint{}, 0
	}
	if index < 0 {
		index = 0
	}
	if index >= len(path)-1 {
		return path[len(path)-1], len(path) - 1
	}

	remaining := budgetKm
	for remaining > 0 && index < len(path)-1 {
		current := path[index]
		next := path[index+1]
		segment := DistanceKm(current, next)

		if remaining >= segment {
			remaining -= segment
			index++
			continue
		}

		fraction := remaining / segment
		return domain.GeoPoint{
			Lat: current.Lat + (next.Lat-current.Lat)*fraction,
			Lng: current.Lng + (next.Lng-current.Lng)*fraction,
		}, index
	}

	return path[index], index
}

// PointAtFraction maps a progress value in [0,1] to a continuous position on
// the path. Values outside the range are clamped. A single-point path yields
// that point for any progress.
func PointAtFraction(path domain.Path, progress float64) domain.GeoPoint {
	if len(path) == 0 {
		return domain.GeoPoint{}
	}
	if len(path) == 1 {
		return path[0]
	}
	if progress <= 0 {
		return path[0]
	}
	if progress >= 1 {
		return path[len(path)-1]
	}

	scaled := progress * float64(len(path)-1)
	index := int(math.Floor(scaled))
	if index >= len(path)-1 {
		return path[len(path)-1]
	}

	fraction := scaled - float64(index)
	current := path[index]
	next := path[index+1]
	return domain.GeoPoint{
		Lat: current.Lat + (next.Lat-current.Lat)*fraction,
		Lng: current.Lng + (next.Lng-current.Lng)*fraction,
	}
}

// DistanceAlongKm returns the polyline distance from the start of the path to
// the vertex nearest pos. Coarse to the vertex level, which is enough to
// re-seed a cursor from a persisted position.
func DistanceAlongKm(path domain.Path, pos domain.GeoPoint) float64 {
	if len(path) == 0 {
		return 0
	}
	nearest := 0
	nearestDist := math.MaxFloat64
	for i, p := range path {
		if d := DistanceKm(p, pos); d < nearestDist {
			nearest = i
			nearestDist = d
		}
	}
	return PathLengthKm(path[:nearest+1])
}

// PathLengthKm returns the total polyline length.
func PathLengthKm(path domain.Path) float64 {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += DistanceKm(path[i], path[i+1])
	}
	return total
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
