// Package config provides configuration management for the adjustment report.
// It loads configuration from environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Export failure policies.
const (
	OnExportErrorAbort    = "abort"
	OnExportErrorContinue = "continue"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig
	Report   ReportConfig

	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
}

// DatabaseConfig describes how to reach the ERP database.
type DatabaseConfig struct {
	Driver            string        `envconfig:"DB_DRIVER" default:"sqlserver" validate:"oneof=sqlserver sqlite3 mysql pgx"`
	DSN               string        `envconfig:"DB_DSN"`
	Server            string        `envconfig:"DB_SERVER"`
	Port              int           `envconfig:"DB_PORT" validate:"gte=0,lte=65535"`
	Name              string        `envconfig:"DB_NAME" validate:"required_without=DSN"`
	User              string        `envconfig:"DB_USER"`
	Password          string        `envconfig:"DB_PASSWORD"`
	TrustedConnection bool          `envconfig:"DB_TRUSTED_CONNECTION" default:"true"`
	TablePrefix       string        `envconfig:"DB_TABLE_PREFIX"`
	ConnectTimeout    time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"30s" validate:"gt=0"`
}

// ReportConfig holds export settings.
type ReportConfig struct {
	OutputDir     string `envconfig:"REPORT_OUTPUT_DIR" default:"reports" validate:"required"`
	EntryType     int    `envconfig:"REPORT_ENTRY_TYPE" default:"1"`
	ColumnsFile   string `envconfig:"REPORT_COLUMNS_FILE"`
	SheetName     string `envconfig:"REPORT_SHEET_NAME" default:"Sheet1" validate:"required,max=31"`
	OnExportError string `envconfig:"REPORT_ON_EXPORT_ERROR" default:"abort" validate:"oneof=abort continue"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateDatabase, DatabaseConfig{})
	return v
}

// validateDatabase requires a server for every networked driver unless a DSN
// is given. For sqlite3 the database name is the file path.
func validateDatabase(sl validator.StructLevel) {
	db := sl.Current().Interface().(DatabaseConfig)
	if db.DSN == "" && db.Driver != "sqlite3" && db.Server == "" {
		sl.ReportError(db.Server, "Server", "Server", "required_without", "DSN")
	}
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration and reports every invalid field at once.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}

	return fmt.Errorf("invalid configuration: %s\nPlease check your .env file or environment variables", strings.Join(problems, "; "))
}

// ContinueOnExportError reports whether a failed client export should be
// skipped rather than aborting the run.
func (c *Config) ContinueOnExportError() bool {
	return c.Report.OnExportError == OnExportErrorContinue
}

// describe turns a validator field error into a message naming the field path.
func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}
