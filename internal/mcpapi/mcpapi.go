// Package mcpapi exposes the workspace orchestrator as an MCP tool
// surface, registered against the same underlying engine the HTTP
// API uses.
package mcpapi

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/query"
	"github.com/logforge/logforge/internal/workspace"
	"github.com/logforge/logforge/pkg/version"
)

// Service registers logforge's tools onto an MCP server and exposes it
// over both SSE and streamable-HTTP transports, the same pair the
// teacher wires up.
type Service struct {
	orch *workspace.Orchestrator

	server     *server.MCPServer
	sseServer  *server.SSEServer
	httpServer *server.StreamableHTTPServer
}

// New builds the MCP service and registers every tool against orch.
func New(orch *workspace.Orchestrator) *Service {
	s := &Service{orch: orch}
	s.server = server.NewMCPServer("logforge", version.Version)
	s.server.AddTool(ImportFolderTool, s.handleImportFolder)
	s.server.AddTool(SearchLogsTool, s.handleSearchLogs)
	s.server.AddTool(GetWorkspacesTool, s.handleGetWorkspaces)
	s.server.AddTool(CancelTaskTool, s.handleCancelTask)
	s.sseServer = server.NewSSEServer(s.server)
	s.httpServer = server.NewStreamableHTTPServer(s.server)
	return s
}

// SSEServer returns the SSE transport, for mounting under /sse and
// /message by internal/httpapi.
func (s *Service) SSEServer() *server.SSEServer { return s.sseServer }

// StreamableHTTPServer returns the streamable-HTTP transport, for
// mounting under /mcp by internal/httpapi.
func (s *Service) StreamableHTTPServer() *server.StreamableHTTPServer { return s.httpServer }

var ImportFolderTool = mcp.NewTool(
	"import_folder",
	mcp.WithDescription("Import a folder or archive of log files into a new searchable workspace. Returns a task id; poll get_workspaces or watch task-update events for completion."),
	mcp.WithString("path", mcp.Description("Absolute path to the folder or archive to import."), mcp.Required()),
)

var SearchLogsTool = mcp.NewTool(
	"search_logs",
	mcp.WithDescription("Search an imported workspace for a literal term or regular expression across every indexed log line."),
	mcp.WithString("workspace_id", mcp.Description("The workspace to search."), mcp.Required()),
	mcp.WithString("query", mcp.Description("Literal substring, or a regular expression when regex=true."), mcp.Required()),
	mcp.WithBoolean("regex", mcp.Description("Treat query as a regular expression instead of a literal substring.")),
	mcp.WithBoolean("case_sensitive", mcp.Description("Match case-sensitively. Defaults to false.")),
	mcp.WithNumber("max_results", mcp.Description("Maximum rows to return. Defaults to 500.")),
)

var GetWorkspacesTool = mcp.NewTool(
	"get_workspaces",
	mcp.WithDescription("List every known workspace and its status."),
)

var CancelTaskTool = mcp.NewTool(
	"cancel_task",
	mcp.WithDescription("Cancel an in-flight import or refresh task."),
	mcp.WithString("task_id", mcp.Description("The task to cancel."), mcp.Required()),
)

type importFolderRequest struct {
	Path string `json:"path"`
}

func (s *Service) handleImportFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req importFolderRequest
	if err := request.BindArguments(&req); err != nil {
		log.Error().Err(err).Msg("import_folder: failed to bind arguments")
		return appErrors.ErrMCPTool(err), nil
	}

	taskID, err := s.orch.ImportFolder(ctx, req.Path)
	if err != nil {
		return appErrors.ErrMCPTool(err), nil
	}
	return textResult(fmt.Sprintf("task_id=%s", taskID)), nil
}

type searchLogsRequest struct {
	WorkspaceID   string `json:"workspace_id"`
	Query         string `json:"query"`
	Regex         bool   `json:"regex"`
	CaseSensitive bool   `json:"case_sensitive"`
	MaxResults    int    `json:"max_results"`
}

func (s *Service) handleSearchLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req searchLogsRequest
	if err := request.BindArguments(&req); err != nil {
		log.Error().Err(err).Msg("search_logs: failed to bind arguments")
		return appErrors.ErrMCPTool(err), nil
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 500
	}

	q := query.Query{
		Terms: []query.Term{{
			ID:            "t1",
			Value:         req.Query,
			IsRegex:       req.Regex,
			CaseSensitive: req.CaseSensitive,
			Operator:      query.OperatorAnd,
			Enabled:       true,
		}},
		GlobalOperator: query.OperatorAnd,
		MaxResults:     req.MaxResults,
		CaseSensitive:  req.CaseSensitive,
	}

	result, err := s.orch.Search(ctx, req.WorkspaceID, q)
	if err != nil {
		return appErrors.ErrMCPTool(err), nil
	}

	buf := &bytes.Buffer{}
	if len(result.Rows) == 0 {
		buf.WriteString("no matches\n")
	}
	for _, row := range result.Rows {
		fmt.Fprintf(buf, "%s:%d: %s\n", row.VirtualPath, row.LineNumber, row.LineContent)
	}
	if result.Truncated {
		buf.WriteString("(truncated: results capped by time budget or max_results)\n")
	}
	return textResult(buf.String()), nil
}

func (s *Service) handleGetWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaces := s.orch.GetWorkspaces()
	buf := &bytes.Buffer{}
	buf.WriteString("id,name,status\n")
	for _, w := range workspaces {
		fmt.Fprintf(buf, "%s,%s,%s\n", w.ID, w.Name, w.Status)
	}
	return textResult(buf.String()), nil
}

type cancelTaskRequest struct {
	TaskID string `json:"task_id"`
}

func (s *Service) handleCancelTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req cancelTaskRequest
	if err := request.BindArguments(&req); err != nil {
		log.Error().Err(err).Msg("cancel_task: failed to bind arguments")
		return appErrors.ErrMCPTool(err), nil
	}
	if err := s.orch.CancelTask(req.TaskID); err != nil {
		return appErrors.ErrMCPTool(err), nil
	}
	return textResult("ok"), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}
