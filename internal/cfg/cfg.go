package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"
)

// Config holds the HTTP server settings plus the shared engine settings.
// It satisfies the go-core cfg Registerable and Validatable interfaces.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	Engine                EngineConfig
}

// EngineConfig is the part of the configuration shared by every binary that
// runs the trigger engine: where the catalog comes from and how dedup behaves.
type EngineConfig struct {
	DatabaseURL         string
	CatalogDir          string
	WatchCatalog        bool
	DedupWindowMillis   int
	DedupSweepThreshold int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on /api routes (empty = no auth)")
	c.Engine.RegisterFlags(fs)
}

// RegisterFlags binds EngineConfig fields to the given FlagSet.
func (c *EngineConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.CatalogDir, "catalog-dir", "", "directory of protocol YAML documents (empty = built-in catalog)")
	fs.BoolVar(&c.WatchCatalog, "watch-catalog", true, "reload the catalog when files in catalog-dir change")
	fs.IntVar(&c.DedupWindowMillis, "dedup-window-ms", 5000, "milliseconds a repeated prompt is treated as a duplicate (1..600000)")
	fs.IntVar(&c.DedupSweepThreshold, "dedup-sweep-threshold", 100, "dedup cache size above which stale entries are swept (>= 1)")
}

// DedupWindow returns the dedup window as a duration.
func (c *EngineConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMillis) * time.Millisecond
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the engine settings.
func (c *EngineConfig) Validate() error {
	var errs []error

	if c.DedupWindowMillis <= 0 || c.DedupWindowMillis > 600000 {
		errs = append(errs, fmt.Errorf("invalid DEDUP_WINDOW_MS %d (must be 1..600000)", c.DedupWindowMillis))
	}
	if c.DedupSweepThreshold <= 0 {
		errs = append(errs, fmt.Errorf("invalid DEDUP_SWEEP_THRESHOLD %d (must be >= 1)", c.DedupSweepThreshold))
	}

	// Database URL is optional, but must be a postgres URL when set
	if c.DatabaseURL != "" {
		u, err := url.Parse(c.DatabaseURL)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid DATABASE_URL: %w", err))
		case u.Scheme != "postgres" && u.Scheme != "postgresql":
			errs = append(errs, fmt.Errorf("invalid DATABASE_URL scheme %q (must be postgres or postgresql)", u.Scheme))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
