package domain

import "time"

// Route represents a bus route a rider can book.
type Route struct {
	ID                string
	Number            string
	Name              string
	Origin            string
	Destination       string
	OriginCoords      GeoPoint
	DestinationCoords GeoPoint
	Fare              float64
	Path              Path
	Driver            string
	DurationMin       float64
	DistanceKm        float64
	CreatedAt         time.Time
}
