// Package pathutil provides centralized path management for report files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DateLayout is the run date format embedded in report file names.
const DateLayout = "20060102"

// ReportSuffix follows the client code in every report file name.
const ReportSuffix = "_Inventory_Adjustments_"

// PathResolver manages paths for report files.
type PathResolver struct {
	outputDir string
}

// New creates a new PathResolver rooted at outputDir.
// An empty outputDir means the current directory.
func New(outputDir string) *PathResolver {
	if outputDir == "" {
		outputDir = "."
	}
	return &PathResolver{outputDir: outputDir}
}

// GetOutputDir returns the report output directory.
func (p *PathResolver) GetOutputDir() string {
	return p.outputDir
}

// ReportFileName returns the file name of a client's report for the run date.
// Example: ABC_Inventory_Adjustments_20250416.xlsx
func ReportFileName(client string, runDate time.Time) string {
	return fmt.Sprintf("%s%s%s.xlsx", client, ReportSuffix, runDate.Format(DateLayout))
}

// GetReportPath returns the full path of a client's report for the run date.
func (p *PathResolver) GetReportPath(client string, runDate time.Time) string {
	return filepath.Join(p.outputDir, ReportFileName(client, runDate))
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (p *PathResolver) EnsureOutputDir() error {
	return p.EnsureDir(p.outputDir)
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
