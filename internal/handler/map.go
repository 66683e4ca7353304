package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"buspass/internal/domain"
	"buspass/internal/service"
)

// MapHandler handles HTTP requests for live map reads.
type MapHandler struct {
	trackingService *service.TrackingService
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(trackingService *service.TrackingService) *MapHandler {
	return &MapHandler{trackingService: trackingService}
}

// BusPositionResponse is the HTTP response for a mirrored bus position.
type BusPositionResponse struct {
	TripID    string        `json:"trip_id"`
	Position  PointResponse `json:"position"`
	Phase     string        `json:"phase,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
}

// GetTripPosition handles GET /v1/trips/:id/position
func (h *MapHandler) GetTripPosition(c *gin.Context) {
	pos, err := h.trackingService.GetTripPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BusPositionResponse{
		TripID:    pos.TripID,
		Position:  PointResponse{Lat: pos.Position.Lat, Lng: pos.Position.Lng},
		Phase:     string(pos.Phase),
		Timestamp: pos.Timestamp.Format(time.RFC3339),
	})
}

// GetNearbyBuses handles GET /v1/buses/nearby?lat=&lng=&radius_km=
func (h *MapHandler) GetNearbyBuses(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng query parameters are required"})
		return
	}

	// Optional; the service applies the default when absent.
	radiusKm, _ := strconv.ParseFloat(c.Query("radius_km"), 64)

	buses, err := h.trackingService.NearbyBuses(c.Request.Context(), domain.GeoPoint{Lat: lat, Lng: lng}, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BusPositionResponse, 0, len(buses))
	for _, bus := range buses {
		response = append(response, BusPositionResponse{
			TripID:   bus.TripID,
			Position: PointResponse{Lat: bus.Position.Lat, Lng: bus.Position.Lng},
		})
	}
	respondJSON(c, http.StatusOK, response)
}
