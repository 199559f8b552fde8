package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/survaize/survaize-client/cmd/survaize/ui"
	"github.com/survaize/survaize-client/internal/config"
	"github.com/survaize/survaize-client/internal/observability"
	"github.com/survaize/survaize-client/internal/transport"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	baseURL string

	// Version is set by main.
	Version = "dev"

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "survaize",
	Short: "Survaize - turn questionnaires into structured survey documents",
	Long: `Survaize sends scanned questionnaire PDFs or exported JSON documents to the
extraction backend, follows the extraction progress and lets you review, edit
and save the resulting questionnaire.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if baseURL != "" {
			loaded.Server.BaseURL = strings.TrimRight(baseURL, "/")
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}
		}
		cfg = loaded

		level := cfg.Observability.LogLevel
		if verbose {
			level = "debug"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "survaize",
		})

		ui.Init(noColor, verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "extraction backend URL (overrides config)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newClient builds a backend client from the loaded configuration.
func newClient() (*transport.Client, error) {
	return transport.NewClient(transport.Options{
		BaseURL:       cfg.Server.BaseURL,
		StreamTimeout: cfg.Transport.StreamTimeout,
		StartupDelay:  cfg.Transport.StartupDelay,
		Retry: &transport.RetryConfig{
			MaxRetries:     cfg.Retry.MaxRetries,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		},
		HTTPClient: &http.Client{Timeout: cfg.Transport.RequestTimeout},
		Logger:     logger,
	})
}
