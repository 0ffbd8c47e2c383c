package errors

import "github.com/mark3labs/mcp-go/mcp"

// ErrMCPTool renders err as an MCP tool error result, the shape the MCP
// protocol expects instead of a transport-level error return.
func ErrMCPTool(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: err.Error(),
			},
		},
		IsError: true,
	}
}
