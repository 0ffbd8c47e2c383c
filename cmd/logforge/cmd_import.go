package logforge

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/logforge/logforge/internal/config"
	"github.com/logforge/logforge/internal/regexcache"
	"github.com/logforge/logforge/internal/resultcache"
	"github.com/logforge/logforge/internal/task"
	"github.com/logforge/logforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import a folder or archive of log files into a new workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), args[0])
	},
}

func runImport(ctx context.Context, path string) error {
	conf, _, err := config.Load(ConfigDir)
	if err != nil {
		return err
	}

	tasks := task.New(task.DefaultConfig(), nil)
	go tasks.Run(ctx)
	defer tasks.Shutdown()

	orch := workspace.New(conf.WorkspaceDir,
		tasks,
		resultcache.New(conf.Caches.ResultCacheSize),
		regexcache.New(conf.Caches.RegexCacheSize),
		extractConfigFromResources(conf.Resources),
		nil)

	taskID, err := orch.ImportFolder(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("importing, task_id=%s\n", taskID)

	for {
		info, ok := tasks.Get(taskID)
		if !ok {
			fmt.Println("done")
			return nil
		}
		if info.Status.Terminal() {
			fmt.Printf("%s: %s\n", info.Status, info.Message)
			if info.Err != "" {
				return fmt.Errorf("%s", info.Err)
			}
			return nil
		}
		time.Sleep(250 * time.Millisecond)
	}
}
