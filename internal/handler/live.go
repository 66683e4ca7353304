package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"buspass/internal/live"
)

// LiveHandler streams trip events to riders watching the map view.
type LiveHandler struct {
	hub *live.Hub
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(hub *live.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// StreamTrip handles GET /v1/trips/:id/live as server-sent events. The
// stream ends when the trip reaches a terminal phase or the client
// disconnects.
func (h *LiveHandler) StreamTrip(c *gin.Context) {
	tripID := c.Param("id")

	events := make(chan live.Event, 16)
	unsubscribe := h.hub.Subscribe(tripID, func(event live.Event) {
		// Drop instead of blocking the hub's delivery goroutine.
		select {
		case events <- event:
		default:
		}
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event := <-events:
			c.SSEvent("trip", event)
			return !event.Phase.Terminal()
		}
	})
}
