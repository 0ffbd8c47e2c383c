package logforge

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Verbose and ConfigDir are bound to persistent flags in root.go.
var (
	Verbose   bool
	ConfigDir string
)

// initLog configures the global zerolog logger once, before any
// subcommand runs: a human-readable console writer when stderr is a
// terminal, plain JSON lines otherwise (piped to a log file, run under
// a supervisor). -v/--verbose and LOGFORGE_LOG_LEVEL both raise the
// level; the flag wins if both are set.
func initLog(cmd *cobra.Command, args []string) {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	level := zerolog.InfoLevel
	if envLevel, err := zerolog.ParseLevel(os.Getenv("LOGFORGE_LOG_LEVEL")); err == nil {
		level = envLevel
	}
	if Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
