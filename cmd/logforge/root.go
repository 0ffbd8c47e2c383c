package logforge

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&ConfigDir, "config-dir", "", "config directory (default: $LOGFORGE_CONFIG_DIR or ~/.logforge)")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
	}
}

var rootCmd = &cobra.Command{
	Use:   "logforge",
	Short: "logforge: local log-archive search engine",
	Long:  `logforge imports folders and archives of log files into a searchable workspace.`,
	Args:  cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}
