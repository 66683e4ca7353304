package domain

// GeoPoint is a geographic coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is within range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Path is an ordered polyline. Order is significant and never re-sorted;
// consecutive points are the segment endpoints used for interpolation.
type Path []GeoPoint

// SyntheticPath builds a straight-line path of numPoints+1 evenly spaced
// points between start and end. Used as a fallback when a route has no
// recorded polyline.
func SyntheticPath(start, end GeoPoint, numPoints int) Path {
	if numPoints < 1 {
		numPoints = 1
	}
	path := make(Path, 0, numPoints+1)
	for i := 0; i <= numPoints; i++ {
		fraction := float64(i) / float64(numPoints)
		path = append(path, GeoPoint{
			Lat: start.Lat + (end.Lat-start.Lat)*fraction,
			Lng: start.Lng + (end.Lng-start.Lng)*fraction,
		})
	}
	return path
}
