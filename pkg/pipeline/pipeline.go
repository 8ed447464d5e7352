// Package pipeline filters ledger entries down to reason-coded adjustments and
// left-joins them to their headers and reason descriptions.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
)

// ErrDuplicateKey is returned when a join table has two records with the same key.
var ErrDuplicateKey = errors.New("duplicate join key")

// FilterAdjustments keeps the entries of the given entry type with a non-zero
// quantity and a reason code. A NULL quantity counts as non-zero and a NULL
// entry type matches nothing. Input order is preserved.
func FilterAdjustments(ledger []inventory.LedgerEntry, entryType int) []inventory.LedgerEntry {
	var result []inventory.LedgerEntry
	for _, entry := range ledger {
		if !entry.EntryType.Valid || entry.EntryType.Int64 != int64(entryType) {
			continue
		}
		if entry.Quantity.Valid && entry.Quantity.Decimal.IsZero() {
			continue
		}
		if !entry.ReasonCode.Valid {
			continue
		}
		result = append(result, entry)
	}
	return result
}

// IndexHeaders keys headers by document number. Headers with a NULL document
// number can never be joined and are left out.
func IndexHeaders(headers []inventory.AdjustmentHeader) (map[string]*inventory.AdjustmentHeader, error) {
	index := make(map[string]*inventory.AdjustmentHeader, len(headers))
	for i := range headers {
		if !headers[i].DocumentNo.Valid {
			continue
		}
		key := headers[i].DocumentNo.String
		if _, exists := index[key]; exists {
			return nil, fmt.Errorf("adjustment header document no %q: %w", key, ErrDuplicateKey)
		}
		index[key] = &headers[i]
	}
	return index, nil
}

// IndexReasons keys reason codes by code, leaving out NULL codes.
func IndexReasons(reasons []inventory.ReasonCode) (map[string]*inventory.ReasonCode, error) {
	index := make(map[string]*inventory.ReasonCode, len(reasons))
	for i := range reasons {
		if !reasons[i].Code.Valid {
			continue
		}
		key := reasons[i].Code.String
		if _, exists := index[key]; exists {
			return nil, fmt.Errorf("reason code %q: %w", key, ErrDuplicateKey)
		}
		index[key] = &reasons[i]
	}
	return index, nil
}

// Merge filters the ledger and left-joins every survivor to its header (on
// document number) and its reason (on reason code). Every survivor yields
// exactly one row; a missing header or reason leaves the pointer nil.
func Merge(ledger []inventory.LedgerEntry, headers []inventory.AdjustmentHeader, reasons []inventory.ReasonCode, entryType int) ([]inventory.MergedAdjustmentRow, error) {
	headerIndex, err := IndexHeaders(headers)
	if err != nil {
		return nil, err
	}
	reasonIndex, err := IndexReasons(reasons)
	if err != nil {
		return nil, err
	}

	survivors := FilterAdjustments(ledger, entryType)
	merged := make([]inventory.MergedAdjustmentRow, 0, len(survivors))
	for _, entry := range survivors {
		row := inventory.MergedAdjustmentRow{LedgerEntry: entry}
		if entry.DocumentNo.Valid {
			row.Header = headerIndex[entry.DocumentNo.String]
		}
		if entry.ReasonCode.Valid {
			row.Reason = reasonIndex[entry.ReasonCode.String]
		}
		merged = append(merged, row)
	}

	return merged, nil
}

// Partition returns the rows whose source number starts with client, in order.
func Partition(rows []inventory.MergedAdjustmentRow, client string) []inventory.MergedAdjustmentRow {
	var result []inventory.MergedAdjustmentRow
	for _, row := range rows {
		if row.BelongsTo(client) {
			result = append(result, row)
		}
	}
	return result
}

// Unassigned counts the rows that fall into none of the clients' partitions.
func Unassigned(rows []inventory.MergedAdjustmentRow, clients []string) int {
	count := 0
	for _, row := range rows {
		matched := false
		for _, client := range clients {
			if row.BelongsTo(client) {
				matched = true
				break
			}
		}
		if !matched {
			count++
		}
	}
	return count
}
