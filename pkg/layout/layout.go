// Package layout decides which columns a report sheet has and in what order.
package layout

import (
	"database/sql"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
)

// Column keys of the merged adjustment table.
const (
	KeyItemNo       = "item_no"
	KeyDocumentNo   = "document_no"
	KeyPostingDate  = "posting_date"
	KeyEntryType    = "entry_type"
	KeyQuantity     = "quantity"
	KeyLocationCode = "location_code"
	KeyReasonCode   = "reason_code"
	KeyUserID       = "user_id"
	KeySourceNo     = "source_no"
	KeyCode         = "code"
	KeyDescription  = "description"
)

// Column is one sheet column: its header label and how to read a row's cell.
type Column struct {
	Key    string
	Header string
	value  func(inventory.MergedAdjustmentRow) any
}

// Value returns the cell value for row. A nil result is an empty cell.
func (c Column) Value(row inventory.MergedAdjustmentRow) any {
	return c.value(row)
}

// Layout is an ordered list of columns.
type Layout struct {
	Columns []Column
}

// Headers returns the header row.
func (l Layout) Headers() []string {
	headers := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Row returns the cell values of row in column order.
func (l Layout) Row(row inventory.MergedAdjustmentRow) []any {
	values := make([]any, len(l.Columns))
	for i, c := range l.Columns {
		values[i] = c.Value(row)
	}
	return values
}

// builtin lists every column in merged table order: ledger columns, then the
// header columns, then the reason columns.
var builtin = []Column{
	{KeyItemNo, "Item No", func(r inventory.MergedAdjustmentRow) any { return r.ItemNo }},
	{KeyDocumentNo, "Document No", func(r inventory.MergedAdjustmentRow) any { return nullable(r.DocumentNo) }},
	{KeyPostingDate, "Posting Date", func(r inventory.MergedAdjustmentRow) any {
		if r.PostingDate.IsZero() {
			return nil
		}
		return r.PostingDate
	}},
	{KeyEntryType, "Entry Type", func(r inventory.MergedAdjustmentRow) any {
		if !r.EntryType.Valid {
			return nil
		}
		return r.EntryType.Int64
	}},
	// Spreadsheet numbers are float64, so quantities beyond about 15
	// significant digits are rounded in the cell.
	{KeyQuantity, "Quantity", func(r inventory.MergedAdjustmentRow) any {
		if !r.Quantity.Valid {
			return nil
		}
		return r.Quantity.Decimal.InexactFloat64()
	}},
	{KeyLocationCode, "Location Code", func(r inventory.MergedAdjustmentRow) any { return r.LocationCode }},
	{KeyReasonCode, "Reason Code", func(r inventory.MergedAdjustmentRow) any { return nullable(r.ReasonCode) }},
	{KeyUserID, "User ID", func(r inventory.MergedAdjustmentRow) any {
		if r.Header == nil {
			return nil
		}
		return nullable(r.Header.UserID)
	}},
	{KeySourceNo, "Source No_", func(r inventory.MergedAdjustmentRow) any {
		if r.Header == nil {
			return nil
		}
		return nullable(r.Header.SourceNo)
	}},
	{KeyCode, "Code", func(r inventory.MergedAdjustmentRow) any {
		if r.Reason == nil {
			return nil
		}
		return nullable(r.Reason.Code)
	}},
	{KeyDescription, "Description", func(r inventory.MergedAdjustmentRow) any {
		if r.Reason == nil {
			return nil
		}
		return nullable(r.Reason.Description)
	}},
}

// Default returns the full merged column set in merged table order.
func Default() Layout {
	columns := make([]Column, len(builtin))
	copy(columns, builtin)
	return Layout{Columns: columns}
}

// ColumnSpec is one entry of a layout file.
type ColumnSpec struct {
	Key    string `yaml:"key"`
	Header string `yaml:"header"`
}

// File is the YAML layout file format.
type File struct {
	Columns []ColumnSpec `yaml:"columns"`
}

// Load reads a YAML layout file. An empty path returns the default layout.
func Load(path string) (Layout, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Layout{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return FromSpecs(file.Columns)
}

// FromSpecs builds a layout from column specs. An empty header keeps the
// built-in label. Unknown and repeated keys are rejected.
func FromSpecs(specs []ColumnSpec) (Layout, error) {
	if len(specs) == 0 {
		return Layout{}, fmt.Errorf("layout has no columns")
	}

	byKey := make(map[string]Column, len(builtin))
	for _, c := range builtin {
		byKey[c.Key] = c
	}

	seen := make(map[string]bool, len(specs))
	columns := make([]Column, 0, len(specs))
	for _, spec := range specs {
		column, ok := byKey[spec.Key]
		if !ok {
			return Layout{}, fmt.Errorf("unknown column key %q", spec.Key)
		}
		if seen[spec.Key] {
			return Layout{}, fmt.Errorf("column key %q listed twice", spec.Key)
		}
		seen[spec.Key] = true

		if spec.Header != "" {
			column.Header = spec.Header
		}
		columns = append(columns, column)
	}

	return Layout{Columns: columns}, nil
}

func nullable(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}
