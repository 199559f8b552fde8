package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/devserver"
	"github.com/survaize/survaize-client/internal/jobstore"
)

var serveDevAddr string

var serveDevCmd = &cobra.Command{
	Use:   "serve-dev",
	Short: "Run a local development backend",
	Long: `Serve the questionnaire API locally. JSON documents are read directly; PDF
jobs answer with an error because extraction needs the real service. Jobs are
kept in memory, or in Redis when REDIS_URL is set.`,
	Args: cobra.NoArgs,
	RunE: runServeDev,
}

func init() {
	serveDevCmd.Flags().StringVar(&serveDevAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveDevCmd)
}

func runServeDev(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev := cfg.DevServer
	if serveDevAddr != "" {
		dev.Addr = serveDevAddr
	}

	store, err := jobstore.Open(dev.Store, dev.JobTTL)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	ui.Info("Development backend on http://%s (job store: %s)", dev.Addr, dev.Store.Driver)
	srv := devserver.New(devserver.Options{
		Addr:             dev.Addr,
		FrameInterval:    dev.FrameInterval,
		GracefulShutdown: dev.GracefulShutdown,
		Store:            store,
		Logger:           logger,
	})
	return srv.Run(ctx)
}
