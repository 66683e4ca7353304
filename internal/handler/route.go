package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buspass/internal/domain"
	"buspass/internal/service"
)

// RouteHandler handles HTTP requests for the route catalogue.
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// PointResponse is a coordinate in a response body.
type PointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResponse is the HTTP response for route data.
type RouteResponse struct {
	ID                string        `json:"id"`
	Number            string        `json:"number"`
	Name              string        `json:"name"`
	Origin            string        `json:"origin"`
	Destination       string        `json:"destination"`
	OriginCoords      PointResponse `json:"origin_coords"`
	DestinationCoords PointResponse `json:"destination_coords"`
	Fare              float64       `json:"fare"`
	Driver            string        `json:"driver,omitempty"`
	DurationMin       float64       `json:"duration_min,omitempty"`
	DistanceKm        float64       `json:"distance_km,omitempty"`
}

func toRouteResponse(route *domain.Route) RouteResponse {
	return RouteResponse{
		ID:          route.ID,
		Number:      route.Number,
		Name:        route.Name,
		Origin:      route.Origin,
		Destination: route.Destination,
		OriginCoords: PointResponse{
			Lat: route.OriginCoords.Lat,
			Lng: route.OriginCoords.Lng,
		},
		DestinationCoords: PointResponse{
			Lat: route.DestinationCoords.Lat,
			Lng: route.DestinationCoords.Lng,
		},
		Fare:        route.Fare,
		Driver:      route.Driver,
		DurationMin: route.DurationMin,
		DistanceKm:  route.DistanceKm,
	}
}

// GetAll handles GET /v1/routes
func (h *RouteHandler) GetAll(c *gin.Context) {
	routes, err := h.routeService.ListRoutes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RouteResponse, 0, len(routes))
	for _, route := range routes {
		response = append(response, toRouteResponse(route))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetRoute handles GET /v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRouteResponse(route))
}
