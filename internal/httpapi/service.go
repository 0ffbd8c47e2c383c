// Package httpapi exposes the workspace orchestrator and task manager
// over the HTTP+SSE command surface: a gin.Engine with a
// recovery/error/CORS middleware stack, plus the MCP SSE/streamable-
// HTTP mounts served alongside the REST routes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/mcpapi"
	"github.com/logforge/logforge/internal/task"
	"github.com/logforge/logforge/internal/workspace"
)

// Config is the subset of internal/config.Config the HTTP surface needs.
type Config interface {
	GetHTTPAddr() string
}

// Service wires the REST command surface and the MCP transports onto
// one gin.Engine.
type Service struct {
	conf  Config
	orch  *workspace.Orchestrator
	tasks *task.Manager
	mcp   *mcpapi.Service

	router *gin.Engine
	server *http.Server

	events *hub[any]
}

// NewService builds the router and the /events hub. It does not
// subscribe to any event source itself: the caller passes
// PublishTaskEvent and PublishWorkspaceEvent as the onEvent callbacks of
// task.Manager and workspace.Orchestrator, and the hub turns each single
// callback into a fan-out of SSE clients.
func NewService(conf Config, orch *workspace.Orchestrator, tasks *task.Manager, mcp *mcpapi.Service) *Service {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("failed to set trusted proxies")
	}

	router.Use(
		apperrors.Recovery(),
		apperrors.Middleware(),
		gin.LoggerWithWriter(log.Logger, "/health"),
		corsMiddleware(),
	)

	s := &Service{
		conf:   conf,
		orch:   orch,
		tasks:  tasks,
		mcp:    mcp,
		router: router,
		events: newHub[any](),
	}

	s.initRouter()
	return s
}

// PublishTaskEvent forwards a task.Event onto the /events SSE hub; wire
// it as the onEvent callback passed to task.New.
func (s *Service) PublishTaskEvent(e task.Event) {
	s.events.broadcast(map[string]any{
		"type": string(e.Kind),
		"task": e.Task,
	})
}

// PublishWorkspaceEvent forwards a workspace.WorkspaceEvent onto the
// /events SSE hub; wire it as the onEvent callback passed to
// workspace.New.
func (s *Service) PublishWorkspaceEvent(e workspace.WorkspaceEvent) {
	errMsg := ""
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	s.events.broadcast(map[string]any{
		"type":         "workspace-event",
		"workspace_id": e.WorkspaceID,
		"kind":         string(e.Kind),
		"message":      e.Message,
		"error":        errMsg,
	})
}

func (s *Service) Router() *gin.Engine { return s.router }

func (s *Service) ListenAndServe() error {
	s.server = &http.Server{
		Addr:    s.conf.GetHTTPAddr(),
		Handler: s.router,
	}
	log.Info().Str("addr", s.conf.GetHTTPAddr()).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Service) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown did not complete cleanly")
		return nil
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
