package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codesurge/hackathon/internal/middleware"
	"github.com/codesurge/hackathon/internal/services"
	"github.com/codesurge/hackathon/pkg/logger"
)

// SSEHandler streams lifecycle events to dashboards
type SSEHandler struct {
	hub *services.SSEHub
}

func NewSSEHandler(hub *services.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// StreamHackathonEvents handles SSE connections for lifecycle updates.
// Authentication is done by AuthRequired, which also accepts ?token=.
// GET /api/events/hackathons
func (h *SSEHandler) StreamHackathonEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.NewString()
	events := h.hub.Subscribe(clientID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Str("username", middleware.GetUsername(c)).
		Int("total", h.hub.ClientCount()).Msg("[SSE] Client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("[SSE] Marshal error")
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("[SSE] Client disconnected")
			return false
		}
	})
}
