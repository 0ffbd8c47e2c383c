package logforge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logforge/logforge/pkg/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&versionModule, "module", "m", false, "show module build information")
}

var versionModule bool

var versionCmd = &cobra.Command{
	Use:   "version [-m]",
	Short: "Show the version of logforge",
	Run: func(cmd *cobra.Command, args []string) {
		if versionModule {
			fmt.Println(version.GetMore(true))
		} else {
			fmt.Printf("logforge %s\n", version.GetMore(false))
		}
	},
}
