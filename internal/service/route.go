package service

import (
	"context"
	"fmt"
	"log"

	"buspass/internal/domain"
	"buspass/internal/redis"
	"buspass/internal/repository"
)

// RouteService reads the route catalogue, fronted by the Redis cache.
type RouteService struct {
	routeRepo repository.RouteRepository
	cache     redis.CacheStoreInterface
}

// NewRouteService creates a new RouteService. cache may be nil.
func NewRouteService(routeRepo repository.RouteRepository, cache redis.CacheStoreInterface) *RouteService {
	return &RouteService{
		routeRepo: routeRepo,
		cache:     cache,
	}
}

// GetRoute retrieves a route by ID, cache first.
func (s *RouteService) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	if routeID == "" {
		return nil, ErrInvalidRouteID
	}

	if s.cache != nil {
		route, err := s.cache.GetRoute(ctx, routeID)
		if err != nil {
			log.Printf("[RouteService] Cache read failed for route %s: %v", routeID, err)
		} else if route != nil {
			return route, nil
		}
	}

	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetRoute(ctx, route); err != nil {
			log.Printf("[RouteService] Cache write failed for route %s: %v", routeID, err)
		}
	}
	return route, nil
}

// ListRoutes retrieves the full route catalogue.
func (s *RouteService) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	routes, err := s.routeRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}
