package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"buspass/internal/domain"
	"buspass/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	bookingService *service.BookingService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(bookingService *service.BookingService) *TripHandler {
	return &TripHandler{bookingService: bookingService}
}

// BookTripRequest is the HTTP request body for booking a trip.
type BookTripRequest struct {
	RiderID      string         `json:"rider_id"`
	RouteID      string         `json:"route_id"`
	BusStart     *PointResponse `json:"bus_start,omitempty"`
	BusStartName string         `json:"bus_start_name,omitempty"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID       string        `json:"trip_id"`
	RiderID      string        `json:"rider_id"`
	RouteID      string        `json:"route_id"`
	RouteNumber  string        `json:"route_number"`
	RouteName    string        `json:"route_name"`
	Origin       string        `json:"origin"`
	Destination  string        `json:"destination"`
	Fare         float64       `json:"fare"`
	Phase        string        `json:"phase"`
	Position     PointResponse `json:"position"`
	BusStartName string        `json:"bus_start_name,omitempty"`
	ChargedAt    string        `json:"charged_at,omitempty"`
	CreatedAt    string        `json:"created_at"`
}

// HistoryResponse is the HTTP response for an archived trip.
type HistoryResponse struct {
	TripID       string  `json:"trip_id"`
	RouteNumber  string  `json:"route_number"`
	RouteName    string  `json:"route_name"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Fare         float64 `json:"fare"`
	Phase        string  `json:"phase"`
	ChargedAt    string  `json:"charged_at,omitempty"`
	CompletedAt  string  `json:"completed_at"`
	CancelReason string  `json:"cancel_reason,omitempty"`
}

func toTripResponse(trip *domain.ActiveTrip) TripResponse {
	response := TripResponse{
		TripID:       trip.ID,
		RiderID:      trip.RiderID,
		RouteID:      trip.RouteID,
		RouteNumber:  trip.RouteNumber,
		RouteName:    trip.RouteName,
		Origin:       trip.Origin,
		Destination:  trip.Destination,
		Fare:         trip.Fare,
		Phase:        string(trip.Phase),
		Position:     PointResponse{Lat: trip.Position.Lat, Lng: trip.Position.Lng},
		BusStartName: trip.BusStartName,
		CreatedAt:    trip.CreatedAt.Format(time.RFC3339),
	}
	if trip.ChargedAt != nil {
		response.ChargedAt = trip.ChargedAt.Format(time.RFC3339)
	}
	return response
}

// BookTrip handles POST /v1/trips
func (h *TripHandler) BookTrip(c *gin.Context) {
	var req BookTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	bookReq := service.BookTripRequest{
		RiderID:      req.RiderID,
		RouteID:      req.RouteID,
		BusStartName: req.BusStartName,
	}
	if req.BusStart != nil {
		bookReq.BusStart = &domain.GeoPoint{Lat: req.BusStart.Lat, Lng: req.BusStart.Lng}
	}

	trip, err := h.bookingService.Book(c.Request.Context(), bookReq)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.bookingService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTripRequest is the optional HTTP request body for cancellation.
type CancelTripRequest struct {
	Reason string `json:"reason"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	// Body is optional; a missing or malformed body means no reason given.
	_ = c.ShouldBindJSON(&req)

	if err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "cancelled"})
}

// GetHistory handles GET /v1/riders/:id/history
func (h *TripHandler) GetHistory(c *gin.Context) {
	history, err := h.bookingService.History(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]HistoryResponse, 0, len(history))
	for _, item := range history {
		entry := HistoryResponse{
			TripID:       item.ID,
			RouteNumber:  item.RouteNumber,
			RouteName:    item.RouteName,
			Origin:       item.Origin,
			Destination:  item.Destination,
			Fare:         item.Fare,
			Phase:        string(item.Phase),
			CompletedAt:  item.CompletedAt.Format(time.RFC3339),
			CancelReason: item.CancelReason,
		}
		if item.ChargedAt != nil {
			entry.ChargedAt = item.ChargedAt.Format(time.RFC3339)
		}
		response = append(response, entry)
	}
	respondJSON(c, http.StatusOK, response)
}
