package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/logforge/logforge/internal/errors"
)

// handleGetObject serves one CAS object's bytes by its SHA-256 key.
// Either an explicit ?offset=&length= pair or a standard single-range
// `Range: bytes=start-end` header selects a byte window; GetFileContent
// does the actual seek-then-read against the object's content.
func (s *Service) handleGetObject(c *gin.Context) {
	sum := c.Param("sha256")
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		apperrors.Err(c, apperrors.InvalidArg("workspace_id", "required"))
		return
	}

	offset, length, partial := parseByteRange(c)

	data, err := s.orch.GetFileContent(workspaceID, sum, offset, length)
	if err != nil {
		apperrors.Err(c, err)
		return
	}

	if partial {
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/*", offset, offset+int64(len(data))-1))
		c.Data(http.StatusPartialContent, "application/octet-stream", data)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func parseByteRange(c *gin.Context) (offset, length int64, partial bool) {
	if o := c.Query("offset"); o != "" {
		offset, _ = strconv.ParseInt(o, 10, 64)
	}
	if l := c.Query("length"); l != "" {
		length, _ = strconv.ParseInt(l, 10, 64)
	}
	if offset > 0 || length > 0 {
		return offset, length, true
	}

	rangeHeader := c.GetHeader("Range")
	spec, ok := strings.CutPrefix(rangeHeader, "bytes=")
	if !ok {
		return 0, 0, false
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if parts[1] == "" {
		return start, 0, true
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || end < start {
		return start, 0, true
	}
	return start, end - start + 1, true
}
