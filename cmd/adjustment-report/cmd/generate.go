package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/config"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/db"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/layout"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/pathutil"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/report"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/source"
)

var (
	outputDir string
	clients   []string
	dryRun    bool
)

// generateCmd runs the same report as the root command under an explicit name.
var generateCmd = &cobra.Command{
	Use:   "generate [CLIENT...]",
	Short: "Write one adjustment report per client",
	Long: `Generate inventory adjustment reports. Running adjustment-report
without a subcommand does the same.

This command:
1. Discovers client codes when none are given
2. Reads ledger entries, adjustment headers and reason codes
3. Keeps non-zero adjustment entries that carry a reason code
4. Joins them with their header and reason description
5. Writes <CLIENT>_Inventory_Adjustments_<YYYYMMDD>.xlsx per client

Client codes may be passed with --clients or as arguments.

Example:
  adjustment-report generate --output_dir reports --clients ABC DEF
  adjustment-report generate --clients ABC,DEF --dry-run`,
	Run: runGenerate,
}

func init() {
	addGenerateFlags(rootCmd)
	addGenerateFlags(generateCmd)
}

// addGenerateFlags registers the report flags on c. The root command and
// generate share the same variables.
func addGenerateFlags(c *cobra.Command) {
	c.Flags().StringVar(&outputDir, "output_dir", "", "Output directory (default from REPORT_OUTPUT_DIR)")
	c.Flags().StringSliceVar(&clients, "clients", nil, "Client codes, three characters each (default: discover)")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no file writes)")
}

func runGenerate(cmd *cobra.Command, args []string) {
	exitOnError(generate(cmd.Context(), slices.Concat(clients, args)), "report generation failed")
}

func generate(ctx context.Context, requested []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Report.OutputDir = outputDir
	}

	logger := slog.Default().With("run_id", uuid.NewString())
	logger.Info("Starting report generation",
		"output_dir", cfg.Report.OutputDir,
		"clients", requested,
		"dry_run", dryRun,
		"on_export_error", cfg.Report.OnExportError,
	)

	columns, err := layout.Load(cfg.Report.ColumnsFile)
	if err != nil {
		return err
	}

	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	exporter := report.NewExporter(
		pathutil.New(cfg.Report.OutputDir),
		report.NewWorkbookWriter(cfg.Report.SheetName, columns),
		report.ExporterOptions{
			ContinueOnError: cfg.ContinueOnExportError(),
			Logger:          logger,
		},
	)
	generator := report.NewGenerator(source.NewStore(conn), exporter, cfg.Report.EntryType, logger)

	summary, err := generator.Run(ctx, report.Options{Clients: requested, DryRun: dryRun})
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		return err
	}

	logger.Info("Report generation completed",
		"files", len(summary.Written),
		"skipped", len(summary.Skipped),
		"unassigned_rows", summary.Unassigned,
	)
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Connection, error) {
	logger.Debug("Opening database",
		"driver", cfg.Database.Driver,
		"server", cfg.Database.Server,
		"database", cfg.Database.Name,
	)
	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to database", "driver", conn.Driver(), "table_prefix", cfg.Database.TablePrefix)
	return conn, nil
}

func printSummary(summary *report.Summary) {
	title := "Report Summary"
	if summary.DryRun {
		title = "Report Summary [DRY RUN]"
	}

	fmt.Printf("\n=== %s ===\n", title)
	fmt.Printf("Run date:        %s\n", summary.RunDate.Format("2006-01-02"))
	for _, file := range summary.Written {
		fmt.Printf("%-16s %s (%d rows)\n", file.Client+":", file.Path, file.Rows)
	}
	for _, client := range summary.Skipped {
		fmt.Printf("%-16s no adjustments, skipped\n", client+":")
	}
	for _, failed := range summary.Failed {
		fmt.Printf("%-16s FAILED: %v\n", failed.Client+":", failed.Err)
	}
	if summary.Unassigned > 0 {
		fmt.Printf("Unassigned rows: %d\n", summary.Unassigned)
	}
	fmt.Println()
}
