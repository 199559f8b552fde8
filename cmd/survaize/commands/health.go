package commands

import (
	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the extraction backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Contacting " + cfg.Server.BaseURL)
		spin.Start()
		err = client.Health(cmd.Context())
		spin.Stop()
		if err != nil {
			return err
		}

		ui.Success("Backend at %s is healthy", cfg.Server.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
