package httpapi

import (
	"io"

	"github.com/gin-gonic/gin"
)

// handleEvents streams the task-update, task-removed, and
// workspace-event notifications published since the client connected;
// there is no replay of history, matching the command surface's
// fire-and-forget event contract. A client whose 32-event buffer is
// full misses the events broadcast meanwhile (see hub.broadcast).
func (s *Service) handleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := s.events.subscribe()
	defer s.events.unsubscribe(ch)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("message", evt)
			return true
		}
	})
}
