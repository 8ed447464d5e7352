package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate clears every variable Load reads so the host environment cannot leak in.
// t.Setenv restores the original values when the test ends.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_DRIVER", "DB_DSN", "DB_SERVER", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_TRUSTED_CONNECTION", "DB_TABLE_PREFIX", "DB_CONNECT_TIMEOUT",
		"REPORT_OUTPUT_DIR", "REPORT_ENTRY_TYPE", "REPORT_COLUMNS_FILE", "REPORT_SHEET_NAME",
		"REPORT_ON_EXPORT_ERROR", "LOG_FORMAT", "DEBUG",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DB_SERVER", "erp01")
	t.Setenv("DB_NAME", "NAV")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "sqlserver", cfg.Database.Driver)
	require.True(t, cfg.Database.TrustedConnection)
	require.Equal(t, 30*time.Second, cfg.Database.ConnectTimeout)
	require.Equal(t, "reports", cfg.Report.OutputDir)
	require.Equal(t, 1, cfg.Report.EntryType)
	require.Equal(t, "Sheet1", cfg.Report.SheetName)
	require.Equal(t, OnExportErrorAbort, cfg.Report.OnExportError)
	require.False(t, cfg.ContinueOnExportError())
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFromEnvFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "report.env")
	content := "DB_DRIVER=sqlite3\nDB_DSN=/tmp/erp.db\nREPORT_ON_EXPORT_ERROR=continue\nREPORT_ENTRY_TYPE=3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "sqlite3", cfg.Database.Driver)
	require.Equal(t, "/tmp/erp.db", cfg.Database.DSN)
	require.Equal(t, 3, cfg.Report.EntryType)
	require.True(t, cfg.ContinueOnExportError())
}

func TestLoadMissingEnvFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorContains(t, err, "failed to load .env file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{
				Driver:         "sqlserver",
				Server:         "erp01",
				Name:           "NAV",
				ConnectTimeout: time.Second,
			},
			Report: ReportConfig{
				OutputDir:     "reports",
				SheetName:     "Sheet1",
				OnExportError: OnExportErrorAbort,
			},
			LogFormat: "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"dsn replaces server and name", func(c *Config) {
			c.Database.Server, c.Database.Name, c.Database.DSN = "", "", "sqlserver://erp01?database=NAV"
		}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "Database.Driver must be one of"},
		{"missing server", func(c *Config) { c.Database.Server = "" }, "Database.Server is required"},
		{"sqlite needs no server", func(c *Config) {
			c.Database.Driver, c.Database.Server, c.Database.Name = "sqlite3", "", "/var/lib/erp/nav.db"
		}, ""},
		{"bad policy", func(c *Config) { c.Report.OnExportError = "retry" }, "Report.OnExportError must be one of"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LogFormat must be one of"},
		{"sheet name too long", func(c *Config) { c.Report.SheetName = "an adjustment sheet name that is too long" }, "Report.SheetName failed max=31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
