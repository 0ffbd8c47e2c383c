package logforge

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/logforge/logforge/internal/config"
	"github.com/logforge/logforge/internal/httpapi"
	"github.com/logforge/logforge/internal/mcpapi"
	"github.com/logforge/logforge/internal/regexcache"
	"github.com/logforge/logforge/internal/resultcache"
	"github.com/logforge/logforge/internal/task"
	"github.com/logforge/logforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and MCP command surfaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// runServe wires every package the engine needs into the two front
// doors the command surface exposes (HTTP+SSE and MCP), the way the
// teacher's cmd_server.go wires database + http.Service together.
func runServe(ctx context.Context) error {
	conf, _, err := config.Load(ConfigDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// svc is filled in once httpapi.NewService returns; both onEvent
	// closures below are only ever invoked after that point (task and
	// workspace events only happen in response to command-surface calls
	// that svc itself dispatches), so the nil check is just for the
	// brief window during construction.
	var svc *httpapi.Service

	tasks := task.New(task.DefaultConfig(), func(e task.Event) {
		if svc != nil {
			svc.PublishTaskEvent(e)
		}
	})
	go tasks.Run(ctx)

	resultCache := resultcache.New(conf.Caches.ResultCacheSize)
	regexCache := regexcache.New(conf.Caches.RegexCacheSize)

	orch := workspace.New(conf.WorkspaceDir, tasks, resultCache, regexCache, extractConfigFromResources(conf.Resources), func(e workspace.WorkspaceEvent) {
		if svc != nil {
			svc.PublishWorkspaceEvent(e)
		}
	})

	mcpSvc := mcpapi.New(orch)
	svc = httpapi.NewService(conf, orch, tasks, mcpSvc)

	log.Info().Str("addr", conf.HTTPAddr).Str("workspace_dir", conf.WorkspaceDir).Msg("logforge serve starting")

	errCh := make(chan error, 1)
	go func() { errCh <- svc.ListenAndServe() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		_ = svc.Stop()
		tasks.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}
