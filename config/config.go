// Package config resolves runtime settings from defaults, a .env file,
// LIBRARY_* environment variables and command-line flags, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"library-circulation/library"
)

const (
	EnvDriver    = "LIBRARY_DB_DRIVER"
	EnvDSN       = "LIBRARY_DB_DSN"
	EnvLoanDays  = "LIBRARY_LOAN_DAYS"
	EnvLogLevel  = "LIBRARY_LOG_LEVEL"
	EnvLogFormat = "LIBRARY_LOG_FORMAT"
	EnvOutput    = "LIBRARY_OUTPUT"

	OutputTable = "table"
	OutputJSON  = "json"
	LogText     = "text"
	LogJSON     = "json"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds everything needed to start the library.
type Config struct {
	Driver    string
	DSN       string
	LoanDays  int
	LogLevel  string
	LogFormat string
	Output    string
}

// Default returns the settings used when nothing is configured: a sqlite
// file in the working directory.
func Default() Config {
	return Config{
		Driver:    library.DriverSQLite,
		DSN:       "library.db",
		LoanDays:  library.DefaultLoanDays,
		LogLevel:  "warn",
		LogFormat: LogText,
		Output:    OutputTable,
	}
}

// FromEnv overlays the variables set in lookup onto Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup(EnvDriver); ok {
		cfg.Driver = v
	}
	if v, ok := lookup(EnvDSN); ok {
		cfg.DSN = v
	}
	if v, ok := lookup(EnvLoanDays); ok {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvLoanDays, err)
		}
		cfg.LoanDays = days
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.LogFormat = v
	}
	if v, ok := lookup(EnvOutput); ok {
		cfg.Output = v
	}
	return cfg, nil
}

// BindFlags registers flags whose defaults are the current values of cfg.
func (cfg *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.Driver, "driver", cfg.Driver, "database driver: sqlite3, postgres or pgx")
	fs.StringVar(&cfg.DSN, "db", cfg.DSN, "sqlite file path or postgres connection string")
	fs.IntVar(&cfg.LoanDays, "loan-days", cfg.LoanDays, "loan period in days")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "table or json")
}

// Validate checks that every setting is usable.
func (cfg Config) Validate() error {
	var errs []error
	switch cfg.Driver {
	case library.DriverSQLite, library.DriverPostgres, library.DriverPGX:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", cfg.Driver))
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		errs = append(errs, errors.New("empty database location"))
	}
	if cfg.LoanDays <= 0 {
		errs = append(errs, fmt.Errorf("loan days must be positive, got %d", cfg.LoanDays))
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogFormat != LogText && cfg.LogFormat != LogJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q", cfg.LogFormat))
	}
	if cfg.Output != OutputTable && cfg.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("unknown output %q", cfg.Output))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// NewLogger builds the process logger writing to w.
func (cfg Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Options translates the settings into library options.
func (cfg Config) Options(logger *slog.Logger) []library.Option {
	return []library.Option{
		library.WithLogger(logger),
		library.WithLoanDays(cfg.LoanDays),
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// DotEnvFile is read by Load when present.
const DotEnvFile = ".env"

// Load is LoadFile over DotEnvFile.
func Load() (Config, error) {
	return LoadFile(DotEnvFile)
}

// LoadFile is FromEnv over the process environment, falling back to the
// variables of envFile. A missing envFile is not an error.
func LoadFile(envFile string) (Config, error) {
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Default(), fmt.Errorf("%w: %s: %v", ErrInvalidConfig, envFile, err)
	}
	return FromEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})
}
