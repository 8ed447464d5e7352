// Package source reads the adjustment report inputs from the ERP database.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/db"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
)

// ERP table names, before the company prefix is applied.
const (
	LedgerTable = "Inventory Ledger Entry"
	HeaderTable = "Inventory Adj Header"
	ReasonTable = "Reason Code"
)

// QueryError reports that the store rejected or failed one of the report queries.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Store runs the fixed report queries against an open connection.
type Store struct {
	conn *db.Connection
}

// NewStore creates a Store on top of conn. The caller keeps ownership of conn.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn}
}

// DiscoverClientCodes returns the distinct three character prefixes of every
// non-null Source No_ at least three characters long, sorted.
func (s *Store) DiscoverClientCodes(ctx context.Context) ([]string, error) {
	d := s.conn.Dialect()
	source := d.Ident("Source No_")
	query := fmt.Sprintf(
		"SELECT DISTINCT %s AS %s FROM %s WHERE %s IS NOT NULL AND %s >= %d",
		d.Left(source, inventory.ClientCodeLength), d.Ident("ClientCode"),
		s.conn.Table(HeaderTable),
		source, d.Length(source), inventory.ClientCodeLength,
	)

	codes, err := fetch(ctx, s, "client codes", query, func(rows *sql.Rows) (sql.NullString, error) {
		var code sql.NullString
		err := rows.Scan(&code)
		return code, err
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(codes))
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		if !code.Valid || code.String == "" || seen[code.String] {
			continue
		}
		seen[code.String] = true
		result = append(result, code.String)
	}
	sort.Strings(result)

	return result, nil
}

// FetchLedgerEntries reads every inventory ledger entry in store order.
func (s *Store) FetchLedgerEntries(ctx context.Context) ([]inventory.LedgerEntry, error) {
	query := s.selectFrom(LedgerTable,
		"Item No", "Document No", "Posting Date", "Entry Type", "Quantity", "Location Code", "Reason Code")

	return fetch(ctx, s, "ledger entries", query, func(rows *sql.Rows) (inventory.LedgerEntry, error) {
		var (
			entry            inventory.LedgerEntry
			itemNo, location sql.NullString
			postingDate      sql.NullTime
		)
		err := rows.Scan(&itemNo, &entry.DocumentNo, &postingDate, &entry.EntryType,
			&entry.Quantity, &location, &entry.ReasonCode)
		if err != nil {
			return entry, err
		}
		entry.ItemNo = itemNo.String
		entry.PostingDate = postingDate.Time
		entry.LocationCode = location.String
		return entry, nil
	})
}

// FetchAdjustmentHeaders reads every adjustment header.
func (s *Store) FetchAdjustmentHeaders(ctx context.Context) ([]inventory.AdjustmentHeader, error) {
	query := s.selectFrom(HeaderTable, "Document No", "User ID", "Source No_")

	return fetch(ctx, s, "adjustment headers", query, func(rows *sql.Rows) (inventory.AdjustmentHeader, error) {
		var header inventory.AdjustmentHeader
		err := rows.Scan(&header.DocumentNo, &header.UserID, &header.SourceNo)
		return header, err
	})
}

// FetchReasonCodes reads the reason code lookup table.
func (s *Store) FetchReasonCodes(ctx context.Context) ([]inventory.ReasonCode, error) {
	query := s.selectFrom(ReasonTable, "Code", "Description")

	return fetch(ctx, s, "reason codes", query, func(rows *sql.Rows) (inventory.ReasonCode, error) {
		var reason inventory.ReasonCode
		err := rows.Scan(&reason.Code, &reason.Description)
		return reason, err
	})
}

func (s *Store) selectFrom(table string, columns ...string) string {
	d := s.conn.Dialect()
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = d.Ident(column)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), s.conn.Table(table))
}

// fetch runs query and scans every row with scan. Any failure, including a
// failure reported by rows.Err after iteration, becomes a QueryError.
func fetch[T any](ctx context.Context, s *Store, name, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, &QueryError{Query: name, Err: fmt.Errorf("failed to scan row: %w", err)}
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}

	return result, nil
}
