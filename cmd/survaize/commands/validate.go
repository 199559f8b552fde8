package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the questionnaire JSON Schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := ui.Writer().Write(schema.MustProvider().Schema())
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <questionnaire.json>",
	Short: "Check a questionnaire JSON file",
	Long: `Report JSON syntax errors, schema markers and structural warnings for a
questionnaire file. Only syntax errors make the command fail; the rest is
advisory.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	provider, err := schema.NewProvider()
	if err != nil {
		return err
	}

	markers := provider.Validate(string(data))
	for _, m := range markers {
		if m.Severity == schema.SeverityError {
			return domain.MalformedEditError(fmt.Errorf("%s (offset %d)", m.Message, m.Offset))
		}
		ui.Warning("%s", m)
	}

	q, err := domain.ParseQuestionnaire(data)
	if err != nil {
		return domain.MalformedEditError(err)
	}
	warnings := q.Check()
	for _, w := range warnings {
		ui.Warning("%s", w)
	}

	if len(markers) == 0 && len(warnings) == 0 {
		ui.Success("%s is a valid questionnaire", args[0])
		return nil
	}
	ui.Info("%d schema marker(s), %d warning(s)", len(markers), len(warnings))
	return nil
}
