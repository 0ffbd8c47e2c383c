package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/logforge/logforge/internal/errors"
)

// handleCancelTask is idempotent: canceling an unknown or already
// finished task id is a no-op, not an error (matching cancel_task's
// command-surface contract).
func (s *Service) handleCancelTask(c *gin.Context) {
	id := c.Param("id")
	if err := s.orch.CancelTask(id); err != nil {
		apperrors.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
