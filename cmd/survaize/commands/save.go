package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/actions"
	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/session"
)

var (
	saveFormat string
	saveDir    string
)

var saveCmd = &cobra.Command{
	Use:   "save <questionnaire.json>",
	Short: "Export a questionnaire as JSON or CSPro",
	Long: `Send a questionnaire JSON document to the backend's save endpoint and write
the returned file. A failed JSON export falls back to a local copy.`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVarP(&saveFormat, "format", "f", string(domain.FormatJSON), "output format (json or cspro)")
	saveCmd.Flags().StringVarP(&saveDir, "dir", "d", ".", "directory to write the file to")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	spin := ui.NewSpinner("Reading " + args[0])
	spin.Start()
	q, err := loadQuestionnaire(args[0])
	if err != nil {
		spin.Stop()
		return err
	}

	sess := session.New(logger)
	sess.SetDocument(q)
	action := actions.NewSaveAction(client, sess, logger)
	format := domain.Format(saveFormat)

	spin.UpdateMessage(fmt.Sprintf("Saving %s via %s", format, cfg.Server.BaseURL))
	res, err := action.Run(cmd.Context(), format, saveDir)
	spin.Stop()
	if err != nil {
		return &actionError{msg: action.Error(), err: err}
	}

	if res.Artifact.Fallback {
		ui.Warning("Save endpoint unavailable, wrote a local JSON copy")
	}
	ui.Success("Saved %s", res.Path)
	return nil
}

// loadQuestionnaire reads a questionnaire JSON file from disk.
func loadQuestionnaire(path string) (*domain.Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	q, err := domain.ParseQuestionnaire(data)
	if err != nil {
		return nil, domain.MalformedEditError(err)
	}
	return q, nil
}
