// Package cmd defines and implements the CLI commands for the fetchmill
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/app"
	"github.com/harridge/fetchmill/internal/config"
	"github.com/harridge/fetchmill/internal/driver"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is the service surface commands depend on. It lets tests inject a
// mock container instead of real backends.
type App interface {
	Close()
	Logger() *zap.Logger
	NewDriver() *driver.Driver
}

// newApp is the application factory, a variable so tests can replace it.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command. Service wiring
// happens in PersistentPreRunE so every subcommand sees a ready App.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetchmill",
		Short: "Politeness-aware fetch scheduler for a distributed crawler",
		Long: `fetchmill drives the fetch phase of a resumable web crawl. It scans
the page store for records generated in a crawl cycle, partitions them by
host so each host is fetched from one lane only, and fetches them under
per-host politeness limits and an optional run time budget.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus FETCHMILL_* env)")

	cmd.AddCommand(newFetchCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. A failed command exits non-zero.
func Execute() {
	root := newRootCmd()
	root.SilenceUsage = true
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
