// Package cli provides the command-line interface for hivectl.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/client"
	"github.com/apiarist/hivectl/internal/config"
	"github.com/apiarist/hivectl/internal/metrics"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and backend client
	cfg       config.Config
	logger    *slog.Logger
	closeLogs func() error
	stats     *metrics.Collector
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hivectl",
	Short: "Apiary monitoring and harvest control",
	Long: `Hivectl is a terminal client for an apiary monitoring backend.

Browse farms, beehives, sensors and harvest devices, follow the live
alert stream, and drive server-executed honey harvests with a progress
view that mirrors the harvester's state machine.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version and help need no backend
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose && cfg.LogLevel > slog.LevelDebug {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, closeLogs = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		stats = metrics.NewCollector()
		apiClient = client.New(cfg, client.WithStats(stats))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLogs != nil {
			if err := closeLogs(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(farmsCmd)
	rootCmd.AddCommand(hivesCmd)
	rootCmd.AddCommand(sensorsCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
