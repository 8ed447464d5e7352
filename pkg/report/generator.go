package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/pipeline"
)

// Source supplies the report inputs. *source.Store implements it.
type Source interface {
	DiscoverClientCodes(ctx context.Context) ([]string, error)
	FetchLedgerEntries(ctx context.Context) ([]inventory.LedgerEntry, error)
	FetchAdjustmentHeaders(ctx context.Context) ([]inventory.AdjustmentHeader, error)
	FetchReasonCodes(ctx context.Context) ([]inventory.ReasonCode, error)
}

// Options selects what a run produces.
type Options struct {
	// Clients to report on. Empty means discover them from the headers.
	Clients []string
	DryRun  bool
}

// Generator runs discovery, extraction, merge and export in that order.
type Generator struct {
	source    Source
	exporter  *Exporter
	entryType int
	logger    *slog.Logger
}

// NewGenerator creates a Generator that keeps ledger entries of entryType.
func NewGenerator(source Source, exporter *Exporter, entryType int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		source:    source,
		exporter:  exporter,
		entryType: entryType,
		logger:    logger,
	}
}

// Run produces the reports. The first query, merge or export failure stops the run.
func (g *Generator) Run(ctx context.Context, opts Options) (*Summary, error) {
	clients, err := NormalizeClientCodes(opts.Clients)
	if err != nil {
		return nil, err
	}

	if len(clients) == 0 {
		g.logger.Info("No clients given, discovering client codes")
		clients, err = g.source.DiscoverClientCodes(ctx)
		if err != nil {
			return nil, err
		}
		g.logger.Info("Discovered client codes", "count", len(clients), "clients", clients)
	}

	g.logger.Info("Fetching ledger entries")
	ledger, err := g.source.FetchLedgerEntries(ctx)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Fetched ledger entries", "count", len(ledger))

	headers, err := g.source.FetchAdjustmentHeaders(ctx)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Fetched adjustment headers", "count", len(headers))

	reasons, err := g.source.FetchReasonCodes(ctx)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Fetched reason codes", "count", len(reasons))

	merged, err := pipeline.Merge(ledger, headers, reasons, g.entryType)
	if err != nil {
		return nil, fmt.Errorf("failed to merge adjustments: %w", err)
	}
	g.logger.Info("Merged adjustments",
		"rows", len(merged),
		"filtered_out", len(ledger)-len(merged),
		"entry_type", g.entryType,
	)

	return g.exporter.Export(merged, clients, opts.DryRun)
}

var validate = validator.New()

// NormalizeClientCodes trims the codes, drops duplicates keeping the first
// occurrence, and rejects anything that is not exactly three characters.
func NormalizeClientCodes(codes []string) ([]string, error) {
	seen := make(map[string]bool, len(codes))
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if err := validate.Var(code, fmt.Sprintf("len=%d", inventory.ClientCodeLength)); err != nil {
			return nil, fmt.Errorf("invalid client code %q: must be exactly %d characters", code, inventory.ClientCodeLength)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		result = append(result, code)
	}
	return result, nil
}
