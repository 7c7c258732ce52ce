package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/socialvault/socialvault/internal/config"
)

var version = "dev"

var noColor bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "socialvault",
		Short:         "SocialVault functions service and CLI",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if os.Getenv("NO_COLOR") != "" {
				noColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().String("user", os.Getenv("SOCIALVAULT_USER"), "user id sent as X-User-ID on team data requests")

	root.AddCommand(
		newServeCmd(),
		newStopCmd(),
		newStatusCmd(),
		newRunCmd(),
		newCompetitorsCmd(),
		newInsightsCmd(),
		newReportsCmd(),
		newPredictionsCmd(),
		newImportCmd(),
		newConfigCmd(),
	)
	return root
}

// newLogger builds the process logger from the log.* settings.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
