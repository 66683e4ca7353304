package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

const (
	mainPathPoints     = 30
	approachPathPoints = 20

	// approachOffsetDeg places the synthetic bus start about two kilometres
	// from the origin stop when the caller gives no start location.
	approachOffsetDeg = 0.018
)

// Simulator is the booking side of the trip engine registry. Implemented by
// sim.Manager.
type Simulator interface {
	Start(trip *domain.ActiveTrip) error
	Cancel(ctx context.Context, tripID, reason string) error
}

// BookTripRequest carries the rider's booking intent. BusStart is the
// vehicle's current location; when nil a start near the origin is
// synthesized.
type BookTripRequest struct {
	RiderID      string
	RouteID      string
	BusStart     *domain.GeoPoint
	BusStartName string
}

// BookingService creates trips, hands them to the simulation and exposes
// cancellation and history.
type BookingService struct {
	tripRepo    repository.ActiveTripRepository
	historyRepo repository.TripHistoryRepository
	userRepo    repository.UserRepository
	routes      *RouteService
	sim         Simulator
}

func NewBookingService(
	tripRepo repository.ActiveTripRepository,
	historyRepo repository.TripHistoryRepository,
	userRepo repository.UserRepository,
	routes *RouteService,
	sim Simulator,
) *BookingService {
	return &BookingService{
		tripRepo:    tripRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		routes:      routes,
		sim:         sim,
	}
}

// Book creates an active trip for the rider on the route and starts its
// simulation. Any previous active trip of the rider is cancelled first, so
// a rider has at most one bus in motion.
func (s *BookingService) Book(ctx context.Context, req BookTripRequest) (*domain.ActiveTrip, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if req.RouteID == "" {
		return nil, ErrInvalidRouteID
	}
	if req.BusStart != nil && !req.BusStart.Valid() {
		return nil, ErrInvalidCoordinates
	}

	if _, err := s.userRepo.GetByID(ctx, req.RiderID); err != nil {
		return nil, fmt.Errorf("failed to get rider: %w", err)
	}
	route, err := s.routes.GetRoute(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}
	if route.Fare <= 0 {
		return nil, ErrInvalidFare
	}

	if err := s.cancelExisting(ctx, req.RiderID); err != nil {
		return nil, err
	}

	trip := s.buildTrip(req, route)
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	if err := s.sim.Start(trip); err != nil {
		// The trip exists but nothing will move it; roll it back so the
		// rider can book again.
		if cerr := s.sim.Cancel(ctx, trip.ID, "simulation start failed"); cerr != nil {
			log.Printf("[BookingService] Rollback of trip %s failed: %v", trip.ID, cerr)
		}
		return nil, fmt.Errorf("failed to start trip simulation: %w", err)
	}

	log.Printf("[BookingService] Trip %s booked: rider %s on route %s (%s)",
		trip.ID, trip.RiderID, route.Number, route.Name)
	return trip, nil
}

// GetTrip retrieves an active trip by ID.
func (s *BookingService) GetTrip(ctx context.Context, tripID string) (*domain.ActiveTrip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// Cancel stops and archives the trip. Safe to call repeatedly; a trip that
// already reached a terminal phase is a no-op. Charged fares are not
// refunded.
func (s *BookingService) Cancel(ctx context.Context, tripID, reason string) error {
	if tripID == "" {
		return ErrInvalidTripID
	}
	if reason == "" {
		reason = "cancelled by rider"
	}
	return s.sim.Cancel(ctx, tripID, reason)
}

// History retrieves the rider's archived trips, newest first.
func (s *BookingService) History(ctx context.Context, riderID string, limit int) ([]*domain.TripHistory, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.historyRepo.ListByRiderID(ctx, riderID, limit)
}

func (s *BookingService) cancelExisting(ctx context.Context, riderID string) error {
	existing, err := s.tripRepo.GetActiveByRiderID(ctx, riderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check active trips: %w", err)
	}
	for _, old := range existing {
		if err := s.sim.Cancel(ctx, old.ID, "replaced by new booking"); err != nil {
			return fmt.Errorf("failed to cancel previous trip %s: %w", old.ID, err)
		}
	}
	return nil
}

func (s *BookingService) buildTrip(req BookTripRequest, route *domain.Route) *domain.ActiveTrip {
	mainPath := route.Path
	if len(mainPath) < 2 {
		mainPath = domain.SyntheticPath(route.OriginCoords, route.DestinationCoords, mainPathPoints)
	}

	busStart := domain.GeoPoint{
		Lat: route.OriginCoords.Lat + approachOffsetDeg,
		Lng: route.OriginCoords.Lng,
	}
	busStartName := "Depot"
	if req.BusStart != nil {
		busStart = *req.BusStart
		if req.BusStartName != "" {
			busStartName = req.BusStartName
		}
	}
	approachPath := domain.SyntheticPath(busStart, route.OriginCoords, approachPathPoints)

	now := time.Now()
	return &domain.ActiveTrip{
		ID:                uuid.New().String(),
		RiderID:           req.RiderID,
		RouteID:           route.ID,
		RouteNumber:       route.Number,
		RouteName:         route.Name,
		Origin:            route.Origin,
		Destination:       route.Destination,
		OriginCoords:      route.OriginCoords,
		DestinationCoords: route.DestinationCoords,
		Fare:              route.Fare,
		MainPath:          mainPath,
		ApproachPath:      approachPath,
		BusStartName:      busStartName,
		Phase:             domain.TripPhaseApproachingOrigin,
		Position:          busStart,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
