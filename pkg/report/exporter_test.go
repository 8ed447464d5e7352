package report

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/layout"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/pathutil"
)

type writeCall struct {
	path    string
	rows    int
	runDate time.Time
}

// recordingWriter records calls and fails for the clients listed in failFor.
type recordingWriter struct {
	calls   []writeCall
	failFor map[string]bool
}

func (w *recordingWriter) WriteReport(path string, rows []inventory.MergedAdjustmentRow, runDate time.Time) error {
	w.calls = append(w.calls, writeCall{path: path, rows: len(rows), runDate: runDate})
	if source, ok := rows[0].SourceNo(); ok && w.failFor[source[:3]] {
		return errors.New("disk full")
	}
	return nil
}

func rowFor(item, source string) inventory.MergedAdjustmentRow {
	return inventory.MergedAdjustmentRow{
		LedgerEntry: inventory.LedgerEntry{ItemNo: item, ReasonCode: valid("R1")},
		Header:      &inventory.AdjustmentHeader{SourceNo: valid(source)},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var runClock = func() time.Time { return time.Date(2025, 4, 16, 8, 30, 0, 0, time.Local) }

func newTestExporter(dir string, w Writer, continueOnError bool) *Exporter {
	return NewExporter(pathutil.New(dir), w, ExporterOptions{
		ContinueOnError: continueOnError,
		Now:             runClock,
		Logger:          quietLogger(),
	})
}

func TestExportWritesOneFilePerNonEmptyClient(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := &recordingWriter{}
	rows := []inventory.MergedAdjustmentRow{rowFor("A", "ABC1"), rowFor("B", "ABD1"), rowFor("C", "ABC2")}

	summary, err := newTestExporter(dir, w, false).Export(rows, []string{"ABC", "ZZZ", "ABD"}, false)
	require.NoError(t, err)

	require.DirExists(t, dir)
	require.Equal(t, []writeCall{
		{path: filepath.Join(dir, "ABC_Inventory_Adjustments_20250416.xlsx"), rows: 2, runDate: runClock()},
		{path: filepath.Join(dir, "ABD_Inventory_Adjustments_20250416.xlsx"), rows: 1, runDate: runClock()},
	}, w.calls)
	require.Equal(t, []string{"ZZZ"}, summary.Skipped)
	require.Len(t, summary.Written, 2)
	require.Equal(t, FileResult{Client: "ABC", Path: w.calls[0].path, Rows: 2}, summary.Written[0])
	require.Zero(t, summary.Unassigned)
}

func TestExportEmptyPartitionCreatesNoFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWorkbookWriter("", layout.Default())

	summary, err := newTestExporter(dir, w, false).Export([]inventory.MergedAdjustmentRow{rowFor("A", "ABC1")}, []string{"XYZ"}, false)
	require.NoError(t, err)
	require.Equal(t, []string{"XYZ"}, summary.Skipped)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExportAbortsOnFirstFailure(t *testing.T) {
	w := &recordingWriter{failFor: map[string]bool{"ABC": true}}
	rows := []inventory.MergedAdjustmentRow{rowFor("A", "ABC1"), rowFor("B", "ABD1")}

	summary, err := newTestExporter(t.TempDir(), w, false).Export(rows, []string{"ABC", "ABD"}, false)
	require.Error(t, err)

	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	require.Equal(t, "ABC", exportErr.Client)
	require.ErrorContains(t, err, "disk full")
	require.Len(t, w.calls, 1, "ABD must not be attempted")
	require.Empty(t, summary.Written)
}

func TestExportContinuesPastFailure(t *testing.T) {
	w := &recordingWriter{failFor: map[string]bool{"ABC": true}}
	rows := []inventory.MergedAdjustmentRow{rowFor("A", "ABC1"), rowFor("B", "ABD1")}

	summary, err := newTestExporter(t.TempDir(), w, true).Export(rows, []string{"ABC", "ABD"}, false)
	require.Error(t, err)

	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	require.Equal(t, "ABC", exportErr.Client)
	require.Len(t, w.calls, 2)
	require.Len(t, summary.Failed, 1)
	require.Len(t, summary.Written, 1)
	require.Equal(t, "ABD", summary.Written[0].Client)
}

func TestExportDryRunWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := &recordingWriter{}

	summary, err := newTestExporter(dir, w, false).Export([]inventory.MergedAdjustmentRow{rowFor("A", "ABC1")}, []string{"ABC"}, true)
	require.NoError(t, err)

	require.True(t, summary.DryRun)
	require.Empty(t, w.calls)
	require.NoDirExists(t, dir)
	require.Len(t, summary.Written, 1)
	require.Equal(t, filepath.Join(dir, "ABC_Inventory_Adjustments_20250416.xlsx"), summary.Written[0].Path)
}

func TestExportOutputDirNotCreatable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := newTestExporter(file, &recordingWriter{}, true).Export([]inventory.MergedAdjustmentRow{rowFor("A", "ABC1")}, []string{"ABC"}, false)

	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	require.Empty(t, exportErr.Client)
	require.Equal(t, file, exportErr.Path)
}

func TestExportCountsUnassignedRows(t *testing.T) {
	rows := []inventory.MergedAdjustmentRow{
		rowFor("A", "ABC1"),
		{LedgerEntry: inventory.LedgerEntry{ItemNo: "orphan", ReasonCode: valid("R1")}},
	}

	summary, err := newTestExporter(t.TempDir(), &recordingWriter{}, false).Export(rows, []string{"ABC"}, false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Unassigned)
}
