package report

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/pathutil"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/pipeline"
)

// ExportError reports that a client's report could not be written.
// Client is empty when the output directory itself could not be prepared.
type ExportError struct {
	Client string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Client == "" {
		return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("export for client %s to %s failed: %v", e.Client, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// FileResult describes one report file.
type FileResult struct {
	Client string
	Path   string
	Rows   int
}

// Summary is the outcome of one export pass.
type Summary struct {
	RunDate    time.Time
	DryRun     bool
	Written    []FileResult // planned files when DryRun is set
	Skipped    []string     // clients without rows
	Failed     []*ExportError
	Unassigned int // rows that matched none of the clients
}

// ExporterOptions configures an Exporter.
type ExporterOptions struct {
	// ContinueOnError logs a failed client export and moves on to the next
	// client instead of aborting the run.
	ContinueOnError bool
	// Now supplies the run date. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Exporter partitions merged rows by client and writes one file per non-empty partition.
type Exporter struct {
	paths           *pathutil.PathResolver
	writer          Writer
	continueOnError bool
	now             func() time.Time
	logger          *slog.Logger
}

// NewExporter creates a new Exporter.
func NewExporter(paths *pathutil.PathResolver, writer Writer, opts ExporterOptions) *Exporter {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:           paths,
		writer:          writer,
		continueOnError: opts.ContinueOnError,
		now:             now,
		logger:          logger,
	}
}

// Export writes <client>_Inventory_Adjustments_<YYYYMMDD>.xlsx for every client
// with at least one row. Clients are handled in the given order, and every
// file of the run carries the same date. With dryRun nothing is written.
func (e *Exporter) Export(rows []inventory.MergedAdjustmentRow, clients []string, dryRun bool) (*Summary, error) {
	summary := &Summary{
		RunDate:    e.now(),
		DryRun:     dryRun,
		Unassigned: pipeline.Unassigned(rows, clients),
	}

	if summary.Unassigned > 0 {
		e.logger.Warn("Rows not matching any client", "rows", summary.Unassigned)
	}

	if !dryRun {
		if err := e.paths.EnsureOutputDir(); err != nil {
			return summary, &ExportError{Path: e.paths.GetOutputDir(), Err: err}
		}
	}

	for _, client := range clients {
		partition := pipeline.Partition(rows, client)
		if len(partition) == 0 {
			e.logger.Info("No adjustments for client, skipping", "client", client)
			summary.Skipped = append(summary.Skipped, client)
			continue
		}

		path := e.paths.GetReportPath(client, summary.RunDate)
		result := FileResult{Client: client, Path: path, Rows: len(partition)}

		if dryRun {
			e.logger.Info("Would write report", "client", client, "path", path, "rows", len(partition))
			summary.Written = append(summary.Written, result)
			continue
		}

		if e.paths.FileExists(path) {
			e.logger.Debug("Overwriting existing report", "path", path)
		}
		if err := e.writer.WriteReport(path, partition, summary.RunDate); err != nil {
			exportErr := &ExportError{Client: client, Path: path, Err: err}
			if !e.continueOnError {
				return summary, exportErr
			}
			e.logger.Error("Failed to write report", "client", client, "path", path, "error", err)
			summary.Failed = append(summary.Failed, exportErr)
			continue
		}

		e.logger.Info("Wrote report", "client", client, "path", path, "rows", len(partition))
		summary.Written = append(summary.Written, result)
	}

	if len(summary.Failed) > 0 {
		errs := make([]error, len(summary.Failed))
		for i, failed := range summary.Failed {
			errs[i] = failed
		}
		return summary, errors.Join(errs...)
	}

	return summary, nil
}
