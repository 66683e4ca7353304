package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"buspass/internal/repository"
	"buspass/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrMissingUserDetails),
		errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidRouteID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidFare),
		errors.Is(err, service.ErrInvalidCoordinates):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict

	// The wallet cannot cover the fare.
	case errors.Is(err, repository.ErrInsufficientBalance):
		return http.StatusPaymentRequired

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
