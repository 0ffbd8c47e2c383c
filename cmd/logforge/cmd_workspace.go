package logforge

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/spf13/cobra"

	"github.com/logforge/logforge/internal/config"
	"github.com/logforge/logforge/internal/regexcache"
	"github.com/logforge/logforge/internal/resultcache"
	"github.com/logforge/logforge/internal/task"
	"github.com/logforge/logforge/internal/workspace"
)

var showUsage bool

func init() {
	workspaceLsCmd.Flags().BoolVar(&showUsage, "usage", false, "also report disk usage for the workspace root")
	workspaceCmd.AddCommand(workspaceLsCmd, workspaceRmCmd)
	rootCmd.AddCommand(workspaceCmd)
}

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Inspect or remove imported workspaces",
}

var workspaceLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List every known workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspaceLs(cmd.Context())
	},
}

var workspaceRmCmd = &cobra.Command{
	Use:   "rm <workspace_id>",
	Short: "Delete a workspace and everything it indexed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspaceRm(args[0])
	},
}

func newOrchestrator(ctx context.Context) (*workspace.Orchestrator, *task.Manager, error) {
	conf, _, err := config.Load(ConfigDir)
	if err != nil {
		return nil, nil, err
	}
	tasks := task.New(task.DefaultConfig(), nil)
	go tasks.Run(ctx)
	orch := workspace.New(conf.WorkspaceDir,
		tasks,
		resultcache.New(conf.Caches.ResultCacheSize),
		regexcache.New(conf.Caches.RegexCacheSize),
		extractConfigFromResources(conf.Resources),
		nil)
	return orch, tasks, nil
}

func runWorkspaceLs(ctx context.Context) error {
	orch, tasks, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer tasks.Shutdown()

	for _, w := range orch.GetWorkspaces() {
		fmt.Printf("%s\t%-8s\t%s\n", w.ID, w.Status, w.RootPath)
	}

	if showUsage {
		conf, _, err := config.Load(ConfigDir)
		if err != nil {
			return err
		}
		usage, err := disk.Usage(conf.WorkspaceDir)
		if err != nil {
			return err
		}
		fmt.Printf("\ndisk usage at %s: %.1f%% used, %d bytes free\n",
			conf.WorkspaceDir, usage.UsedPercent, usage.Free)
	}
	return nil
}

func runWorkspaceRm(workspaceID string) error {
	ctx := context.Background()
	orch, tasks, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer tasks.Shutdown()

	if err := orch.DeleteWorkspace(workspaceID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", workspaceID)
	return nil
}
