package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/logforge/logforge/internal/errors"
)

type importRequest struct {
	Path string `json:"path" binding:"required"`
}

// handleImport backs both import_folder and import_archive: the
// extraction pipeline tells a directory from an archive by statting
// the path itself, so one route and one handler cover both commands.
func (s *Service) handleImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Err(c, apperrors.InvalidArg("path", "required"))
		return
	}

	taskID, err := s.orch.ImportFolder(c.Request.Context(), req.Path)
	if err != nil {
		apperrors.Err(c, err)
		return
	}

	workspaceID := ""
	if info, ok := s.tasks.Get(taskID); ok {
		workspaceID = info.WorkspaceID
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id":      taskID,
		"workspace_id": workspaceID,
	})
}

func (s *Service) handleListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workspaces": s.orch.GetWorkspaces()})
}

func (s *Service) handleRefreshWorkspace(c *gin.Context) {
	id := c.Param("id")
	taskID, err := s.orch.RefreshWorkspace(c.Request.Context(), id)
	if err != nil {
		apperrors.Err(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

func (s *Service) handleDeleteWorkspace(c *gin.Context) {
	id := c.Param("id")
	if err := s.orch.DeleteWorkspace(id); err != nil {
		apperrors.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handleWatchWorkspace(c *gin.Context) {
	id := c.Param("id")
	if err := s.orch.WatchWorkspace(id); err != nil {
		apperrors.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handleUnwatchWorkspace(c *gin.Context) {
	id := c.Param("id")
	if err := s.orch.UnwatchWorkspace(id); err != nil {
		apperrors.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
