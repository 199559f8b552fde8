package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Writer(), "survaize version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
