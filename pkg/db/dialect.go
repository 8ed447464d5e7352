// Package db opens the read-only connection to the ERP database and knows the
// SQL dialect differences between the supported drivers.
package db

import (
	"fmt"
	"strings"
)

// Dialect captures the few SQL differences the report queries depend on.
type Dialect struct {
	Name string

	open, close string
	left        string
	length      string
}

var dialects = map[string]Dialect{
	DriverSQLServer: {Name: DriverSQLServer, open: "[", close: "]", left: "LEFT(%s, %d)", length: "LEN(%s)"},
	DriverSQLite:    {Name: DriverSQLite, open: "[", close: "]", left: "substr(%s, 1, %d)", length: "length(%s)"},
	DriverMySQL:     {Name: DriverMySQL, open: "`", close: "`", left: "LEFT(%s, %d)", length: "CHAR_LENGTH(%s)"},
	DriverPostgres:  {Name: DriverPostgres, open: `"`, close: `"`, left: "LEFT(%s, %d)", length: "LENGTH(%s)"},
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// Ident quotes an identifier. ERP column names contain spaces and trailing
// underscores ("Source No_"), so every identifier is quoted.
func (d Dialect) Ident(name string) string {
	escaped := strings.ReplaceAll(name, d.close, d.close+d.close)
	return d.open + escaped + d.close
}

// Left returns an expression for the first n characters of expr.
func (d Dialect) Left(expr string, n int) string {
	return fmt.Sprintf(d.left, expr, n)
}

// Length returns an expression for the character length of expr.
func (d Dialect) Length(expr string) string {
	return fmt.Sprintf(d.length, expr)
}
