package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Service) initRouter() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.POST("/workspaces", s.handleImport)
		api.GET("/workspaces", s.handleListWorkspaces)
		api.POST("/workspaces/:id/refresh", s.handleRefreshWorkspace)
		api.DELETE("/workspaces/:id", s.handleDeleteWorkspace)
		api.POST("/workspaces/:id/watch", s.handleWatchWorkspace)
		api.DELETE("/workspaces/:id/watch", s.handleUnwatchWorkspace)

		api.POST("/search", s.handleSearch)

		api.POST("/tasks/:id/cancel", s.handleCancelTask)

		api.GET("/objects/:sha256", s.handleGetObject)

		api.POST("/exports", s.handleExport)

		api.GET("/events", s.handleEvents)
	}

	s.router.Any("/mcp", func(c *gin.Context) {
		s.mcp.StreamableHTTPServer().ServeHTTP(c.Writer, c.Request)
	})
	s.router.Any("/sse", func(c *gin.Context) {
		s.mcp.SSEServer().ServeHTTP(c.Writer, c.Request)
	})
	s.router.Any("/message", func(c *gin.Context) {
		s.mcp.SSEServer().ServeHTTP(c.Writer, c.Request)
	})

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
