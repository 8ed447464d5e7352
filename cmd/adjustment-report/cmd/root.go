// Package cmd provides CLI commands for adjustment-report.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/config"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "adjustment-report [CLIENT...]",
	Short: "Export inventory adjustments per client to Excel",
	Long: `adjustment-report reads inventory adjustment entries from the ERP
database, joins them with their adjustment headers and reason codes,
and writes one Excel workbook per client code.

Client codes are the first three characters of an adjustment header's
source number. When no clients are given they are discovered from the
database.

Example:
  adjustment-report --output_dir reports --clients ABC DEF
  adjustment-report --dry-run
  adjustment-report clients`,
	Args: cobra.ArbitraryArgs,
	Run:  runGenerate,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(os.Stderr, os.Getenv("LOG_FORMAT"), debug))
	},
}

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(clientsCmd)
}

// newLogger builds the process logger. format is "json" or anything else for text.
func newLogger(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads and validates configuration, then reinstalls the logger
// with the configured format.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.LogFormat, debug || cfg.Debug))
	return cfg, nil
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
