package handler

import (
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mesa-api/internal/domain/event"
	"github.com/sangkips/mesa-api/internal/infrastructure/events"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 25 * time.Second
)

// EventsHandler streams domain events to devices over server-sent events
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream keeps the connection open and writes each event as it is published.
// ?types=order,table limits the stream to events whose type starts with one of the prefixes.
func (h *EventsHandler) Stream(c *gin.Context) {
	var prefixes []string
	if types := c.Query("types"); types != "" {
		for _, p := range strings.Split(types, ",") {
			if p = strings.TrimSpace(p); p != "" {
				prefixes = append(prefixes, p)
			}
		}
	}

	ch, unsubscribe := h.hub.Subscribe(eventBuffer)
	defer unsubscribe()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"staff_id": GetStaffID(c)})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case e, ok := <-ch:
			if !ok {
				return false
			}
			if wanted(e, prefixes) {
				c.SSEvent(string(e.Type), e)
			}
			return true
		}
	})
}

func wanted(e event.Event, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(string(e.Type), p) {
			return true
		}
	}
	return false
}
