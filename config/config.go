/*
Package config loads process configuration from the environment.

PURPOSE:
  One Config struct shared by the server and the CLI. Values come from
  environment variables with defaults; cmd/server lets flags override them.

SOURCES:
  file:   LEDGER_PATH and BALANCES_PATH on disk (default)
  sqlite: documents previously imported into DB_PATH
  url:    LEDGER_URL and BALANCES_URL fetched over HTTP

SEE ALSO:
  - config/logger.go: zerolog setup from LOG_LEVEL / LOG_FORMAT
  - cmd/server/main.go: flag overrides
*/
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/drift"
)

// Source kinds.
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
	SourceURL    = "url"
)

// Config holds all runtime settings.
type Config struct {
	Port int    `env:"PORT" envDefault:"8080"`
	DB   string `env:"DB_PATH" envDefault:"drift.db"`

	Source       string `env:"SOURCE" envDefault:"file"`
	LedgerPath   string `env:"LEDGER_PATH" envDefault:"sample-ledger.json"`
	BalancesPath string `env:"BALANCES_PATH" envDefault:"sample-balances.json"`
	LedgerURL    string `env:"LEDGER_URL"`
	BalancesURL  string `env:"BALANCES_URL"`

	// DefaultTolerance is kept as text; see Tolerance.
	DefaultTolerance string        `env:"DEFAULT_TOLERANCE" envDefault:"5"`
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"0s"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadArgs parses the environment, applies the server's command-line
// overrides from args, then validates the result once. Flags win over the
// environment.
func LoadArgs(name string, args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DB, "db", cfg.DB, "SQLite database path")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "ledger source: file, sqlite or url")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Source {
	case SourceFile:
		if c.LedgerPath == "" || c.BalancesPath == "" {
			return fmt.Errorf("source %q requires LEDGER_PATH and BALANCES_PATH", c.Source)
		}
	case SourceURL:
		if c.LedgerURL == "" || c.BalancesURL == "" {
			return fmt.Errorf("source %q requires LEDGER_URL and BALANCES_URL", c.Source)
		}
	case SourceSQLite:
		if c.DB == "" {
			return fmt.Errorf("source %q requires DB_PATH", c.Source)
		}
	default:
		return fmt.Errorf("unknown source %q (want file, sqlite or url)", c.Source)
	}
	if c.ScheduleInterval < 0 {
		return fmt.Errorf("SCHEDULE_INTERVAL must not be negative")
	}
	return nil
}

// Tolerance is the configured default tolerance, parsed the same way as a
// query parameter.
func (c Config) Tolerance() decimal.Decimal {
	return drift.ParseTolerance(c.DefaultTolerance, drift.DefaultTolerance())
}
