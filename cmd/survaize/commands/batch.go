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
	"golang.org/x/sync/errgroup"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/actions"
	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/preflight"
	"github.com/survaize/survaize-client/internal/session"
)

var (
	batchOutDir      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Extract several questionnaires concurrently",
	Long: `Open every file as its own extraction job and write each questionnaire as
<name>.json into the output directory. A failing file does not stop the
others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", ".", "output directory")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "j", 2, "number of jobs run at once")
	rootCmd.AddCommand(batchCmd)
}

type batchResult struct {
	path string
	out  string
	err  error
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", batchOutDir, err)
	}

	checker := preflight.NewChecker(logger)
	progress := ui.NewBatchProgress()
	results := make([]batchResult, len(args))

	// first file listed wins an output name; later ones fail without running
	claimed := make(map[string]string)
	for i, path := range args {
		out := batchOutput(batchOutDir, path)
		if prev, ok := claimed[out]; ok {
			results[i] = batchResult{path: path, err: fmt.Errorf("%s is already written for %s", out, prev)}
			continue
		}
		claimed[out] = path
		results[i] = batchResult{path: path, out: out}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(batchConcurrency, 1))

	for i := range results {
		if results[i].err != nil {
			continue
		}
		path, out := results[i].path, results[i].out
		bar := progress.AddBar(filepath.Base(path))
		g.Go(func() error {
			sess := session.New(logger)
			unsubscribe := sess.Subscribe(func(s session.Snapshot) {
				if s.Loading {
					bar.Update(s.Progress)
				}
			})
			err := convertOne(gctx, actions.NewOpenAction(client, sess, checker, logger), path, out)
			unsubscribe()
			bar.Done(err == nil)
			results[i].err = err
			// one failed file must not cancel the rest
			return nil
		})
	}
	_ = g.Wait()
	progress.Wait()

	ui.Section("Results")
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			ui.Error("%s: %s", r.path, r.err)
			continue
		}
		ui.Success("%s -> %s", r.path, r.out)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
	}
	return nil
}

func convertOne(ctx context.Context, action *actions.OpenAction, path, out string) error {
	q, err := action.Run(ctx, path)
	if err != nil {
		return &actionError{msg: action.Error(), err: err}
	}
	return writeQuestionnaire(q, out)
}

// batchOutput is <source name>.json inside dir.
func batchOutput(dir, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, base+".json")
}

func writeQuestionnaire(q *domain.Questionnaire, out string) error {
	data, err := q.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}
