// Package inventory defines the ERP records the adjustment report reads.
package inventory

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ClientCodeLength is the number of leading Source No_ characters that identify a client.
const ClientCodeLength = 3

// LedgerEntry is one inventory movement from the Inventory Ledger Entry table.
// DocumentNo, EntryType and Quantity stay nullable so a NULL is never mistaken
// for a join key, an entry type or a zero quantity.
type LedgerEntry struct {
	ItemNo       string
	DocumentNo   sql.NullString
	PostingDate  time.Time
	EntryType    sql.NullInt64
	Quantity     decimal.NullDecimal // signed
	LocationCode string
	ReasonCode   sql.NullString
}

// AdjustmentHeader is a row of the Inventory Adj Header table.
type AdjustmentHeader struct {
	DocumentNo sql.NullString
	UserID     sql.NullString
	SourceNo   sql.NullString // first three characters are the client code
}

// ReasonCode resolves an adjustment reason to its description.
type ReasonCode struct {
	Code        sql.NullString
	Description sql.NullString
}

// MergedAdjustmentRow is a qualifying ledger entry enriched with its header and
// reason. Header and Reason are nil when the left join found no match.
type MergedAdjustmentRow struct {
	LedgerEntry
	Header *AdjustmentHeader
	Reason *ReasonCode
}

// SourceNo returns the header source number, or false when there is no header
// or the column is null.
func (r MergedAdjustmentRow) SourceNo() (string, bool) {
	if r.Header == nil || !r.Header.SourceNo.Valid {
		return "", false
	}
	return r.Header.SourceNo.String, true
}

// BelongsTo reports whether the row's source number starts with client.
// The match is a case-sensitive prefix match.
func (r MergedAdjustmentRow) BelongsTo(client string) bool {
	source, ok := r.SourceNo()
	return ok && strings.HasPrefix(source, client)
}
