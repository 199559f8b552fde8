package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/actions"
	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/editor"
	"github.com/survaize/survaize-client/internal/preflight"
	"github.com/survaize/survaize-client/internal/session"
)

var (
	openOutputPath string
	openRaw        bool
)

var openCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Extract a questionnaire from a PDF or JSON file",
	Long: `Upload a questionnaire PDF or JSON document to the extraction backend, follow
the extraction progress and print the resulting questionnaire.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().StringVarP(&openOutputPath, "output", "o", "", "write the questionnaire JSON to this file")
	openCmd.Flags().BoolVar(&openRaw, "raw", false, "print JSON instead of the structured view")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient()
	if err != nil {
		return err
	}

	sess := session.New(logger)
	if ui.Verbose() {
		ui.Info("Backend %s, session %s", cfg.Server.BaseURL, sess.ID())
	}
	q, err := openWithProgress(ctx, actions.NewOpenAction(client, sess, preflight.NewChecker(logger), logger), sess, args[0])
	if err != nil {
		return err
	}

	ed := editor.New(sess, nil)
	if openRaw {
		ed.ToggleRaw()
	}
	if err := ed.Render(ui.Writer()); err != nil {
		return err
	}

	if openOutputPath != "" {
		data, err := q.Marshal()
		if err != nil {
			return fmt.Errorf("serialize questionnaire: %w", err)
		}
		if err := os.WriteFile(openOutputPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", openOutputPath, err)
		}
		ui.Success("Questionnaire written to %s", openOutputPath)
	}
	return nil
}

// openWithProgress runs the open action while a progress bar follows the
// session.
func openWithProgress(ctx context.Context, action *actions.OpenAction, sess *session.Session, path string) (*domain.Questionnaire, error) {
	ui.Step("Opening %s", filepath.Base(path))

	var bar *ui.ProgressBar
	unsubscribe := sess.Subscribe(func(s session.Snapshot) {
		if !s.Loading {
			return
		}
		if bar == nil {
			bar = ui.NewProgressBar(action.Label())
		}
		bar.Update(s.Progress, s.Message)
	})
	defer unsubscribe()

	q, err := action.Run(ctx, path)
	if bar != nil {
		if err == nil {
			bar.Finish()
		} else {
			bar.Clear()
		}
	}
	if err != nil {
		return nil, &actionError{msg: action.Error(), err: err}
	}

	ui.Success("Loaded %q (%d questions)", q.Title, len(q.QuestionIDs()))
	if warnings := q.Check(); len(warnings) > 0 {
		ui.Warning("%d issue(s) found:\n  %s", len(warnings), joinWarnings(warnings))
	}
	return q, nil
}

func joinWarnings(warnings []domain.Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n  ")
}
