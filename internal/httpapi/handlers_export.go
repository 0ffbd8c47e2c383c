package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/logforge/logforge/internal/errors"
)

type exportRequest struct {
	searchRequest
}

// handleExport runs the same search as /search but renders the full,
// non-streamed result as a CSV attachment.
func (s *Service) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Err(c, apperrors.InvalidArg("terms", "at least one required"))
		return
	}

	result, err := s.orch.Search(c.Request.Context(), req.WorkspaceID, req.toQuery())
	if err != nil {
		apperrors.Err(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_search.csv", req.WorkspaceID))
	c.Header("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"virtual_path", "line_number", "level", "timestamp", "content"})
	for _, row := range result.Rows {
		ts := ""
		if row.InferredTimestamp != nil {
			ts = row.InferredTimestamp.Format("2006-01-02T15:04:05Z07:00")
		}
		_ = w.Write([]string{
			row.VirtualPath,
			fmt.Sprintf("%d", row.LineNumber),
			row.InferredLevel,
			ts,
			row.LineContent,
		})
	}
	w.Flush()
}
