package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/query"
)

type searchTerm struct {
	ID            string `json:"id"`
	Value         string `json:"value" binding:"required"`
	IsRegex       bool   `json:"is_regex"`
	CaseSensitive bool   `json:"case_sensitive"`
	Operator      string `json:"operator"`
}

type searchFilters struct {
	TimeStart *time.Time `json:"time_start"`
	TimeEnd   *time.Time `json:"time_end"`
	Levels    []string   `json:"levels"`
	PathGlob  string     `json:"path_glob"`
}

type searchRequest struct {
	WorkspaceID    string        `json:"workspace_id" binding:"required"`
	Terms          []searchTerm  `json:"terms" binding:"required,min=1"`
	GlobalOperator string        `json:"global_operator"`
	Filters        searchFilters `json:"filters"`
	MaxResults     int           `json:"max_results"`
	CaseSensitive  bool          `json:"case_sensitive"`
}

func (req *searchRequest) toQuery() query.Query {
	terms := make([]query.Term, len(req.Terms))
	for i, t := range req.Terms {
		op := query.Operator(t.Operator)
		if op == "" {
			op = query.OperatorAnd
		}
		terms[i] = query.Term{
			ID:            t.ID,
			Value:         t.Value,
			IsRegex:       t.IsRegex,
			CaseSensitive: t.CaseSensitive,
			Operator:      op,
			Enabled:       true,
		}
	}

	globalOp := query.Operator(req.GlobalOperator)
	if globalOp == "" {
		globalOp = query.OperatorAnd
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 500
	}

	return query.Query{
		Terms:          terms,
		GlobalOperator: globalOp,
		Filters: query.Filters{
			TimeStart: req.Filters.TimeStart,
			TimeEnd:   req.Filters.TimeEnd,
			Levels:    req.Filters.Levels,
			PathGlob:  req.Filters.PathGlob,
		},
		MaxResults:    maxResults,
		CaseSensitive: req.CaseSensitive,
	}
}

// handleSearch streams result batches as SSE events, then a terminal
// search-summary event once query.Execute returns.
func (s *Service) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Err(c, apperrors.InvalidArg("terms", "at least one required"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	onBatch := func(rows []query.ResultRow) {
		c.SSEvent("search-batch", gin.H{"rows": rows})
		c.Writer.Flush()
	}

	result, err := s.orch.SearchStream(ctx, req.WorkspaceID, req.toQuery(), onBatch)
	if err != nil {
		c.SSEvent("search-error", gin.H{"error": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("search-summary", gin.H{
		"row_count": len(result.Rows),
		"truncated": result.Truncated,
	})
	c.Writer.Flush()
}
