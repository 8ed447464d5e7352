package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/config"
)

// Supported drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite3"
	DriverMySQL     = "mysql"
	DriverPostgres  = "pgx"
)

// ConnectionError reports that the store could not be reached or rejected the credentials.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s database failed: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Connection manages the single database connection used by one report run.
type Connection struct {
	db      *sql.DB
	driver  string
	dialect Dialect
	prefix  string
}

// Open opens a connection to the ERP database and verifies it with a ping.
// The pool is capped at one connection; callers must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Connection, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Err: err}
	}

	sqlDB, err := openDB(cfg)
	if err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Err: err}
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	// Test connection
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, &ConnectionError{Driver: cfg.Driver, Err: fmt.Errorf("failed to ping database: %w", err)}
	}

	return &Connection{
		db:      sqlDB,
		driver:  cfg.Driver,
		dialect: dialect,
		prefix:  cfg.TablePrefix,
	}, nil
}

// FromDB wraps an already opened *sql.DB. It is the seam for callers that
// manage the pool themselves, such as SQLite fixtures in tests.
func FromDB(sqlDB *sql.DB, driver, tablePrefix string) (*Connection, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Connection{db: sqlDB, driver: driver, dialect: dialect, prefix: tablePrefix}, nil
}

// Close closes the database connection. Calling it more than once is a no-op.
func (c *Connection) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Driver returns the driver name the connection was opened with.
func (c *Connection) Driver() string {
	return c.driver
}

// Dialect returns the SQL dialect of the connected store.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// Table returns the quoted name of an ERP table, including the configured company prefix.
func (c *Connection) Table(name string) string {
	return c.dialect.Ident(c.prefix + name)
}

// QueryContext executes a query that returns rows.
func (c *Connection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.db == nil {
		return nil, sql.ErrConnDone
	}
	return c.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows. The report only
// reads; this exists so fixtures can seed a database through the same wrapper.
func (c *Connection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.db == nil {
		return nil, sql.ErrConnDone
	}
	return c.db.ExecContext(ctx, query, args...)
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == DriverPostgres {
		dsn := cfg.DSN
		if dsn == "" {
			dsn = postgresDSN(cfg)
		}
		connConfig, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
		}
		return stdlib.OpenDB(*connConfig), nil
	}

	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return sqlDB, nil
}

// BuildDSN returns the driver specific connection string for cfg.
// An explicit DSN always wins over the individual settings.
func BuildDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	switch cfg.Driver {
	case DriverSQLServer:
		return sqlServerDSN(cfg), nil
	case DriverSQLite:
		return fmt.Sprintf("file:%s?mode=ro", cfg.Name), nil
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = hostPort(cfg.Server, cfg.Port, 3306)
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.DBName = cfg.Name
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	case DriverPostgres:
		return postgresDSN(cfg), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqlServerDSN builds a sqlserver:// URL. Without a user the driver falls back
// to integrated authentication, which is what a trusted connection means.
func sqlServerDSN(cfg config.DatabaseConfig) string {
	query := url.Values{}
	query.Set("database", cfg.Name)
	query.Set("app name", "adjustment-report")

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     cfg.Server,
		RawQuery: query.Encode(),
	}
	if cfg.Port > 0 {
		u.Host = hostPort(cfg.Server, cfg.Port, 1433)
	}
	if !cfg.TrustedConnection && cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

func postgresDSN(cfg config.DatabaseConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   hostPort(cfg.Server, cfg.Port, 5432),
		Path:   "/" + cfg.Name,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

func hostPort(host string, port, fallback int) string {
	if port <= 0 {
		port = fallback
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
