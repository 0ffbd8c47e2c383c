package logforge

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logforge/logforge/internal/config"
	"github.com/logforge/logforge/internal/query"
	"github.com/logforge/logforge/internal/regexcache"
	"github.com/logforge/logforge/internal/resultcache"
	"github.com/logforge/logforge/internal/task"
	"github.com/logforge/logforge/internal/workspace"
)

var (
	searchWorkspaceID string
	searchRegex       bool
	searchCaseSens    bool
	searchMaxResults  int
)

func init() {
	searchCmd.Flags().StringVar(&searchWorkspaceID, "workspace", "", "workspace id to search")
	searchCmd.Flags().BoolVar(&searchRegex, "regex", false, "treat the query as a regular expression")
	searchCmd.Flags().BoolVar(&searchCaseSens, "case-sensitive", false, "match case-sensitively")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 500, "maximum rows to return")
	_ = searchCmd.MarkFlagRequired("workspace")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an imported workspace for a term or regular expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context(), args[0])
	},
}

func runSearch(ctx context.Context, term string) error {
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

	q := query.Query{
		Terms: []query.Term{{
			ID:            "t1",
			Value:         term,
			IsRegex:       searchRegex,
			CaseSensitive: searchCaseSens,
			Operator:      query.OperatorAnd,
			Enabled:       true,
		}},
		GlobalOperator: query.OperatorAnd,
		MaxResults:     searchMaxResults,
		CaseSensitive:  searchCaseSens,
	}

	result, err := orch.Search(ctx, searchWorkspaceID, q)
	if err != nil {
		return err
	}

	for _, row := range result.Rows {
		fmt.Printf("%s:%d: %s\n", row.VirtualPath, row.LineNumber, row.LineContent)
	}
	if result.Truncated {
		fmt.Println("(truncated)")
	}
	return nil
}
