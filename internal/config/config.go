package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Backend names accepted by --backend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Options is every setting shared by the agent, the server and the tools.
// Each flag falls back to its environment variable, then to the default.
type Options struct {
	// Storage
	DataDir     string `long:"data-dir" env:"GRANT_DATA_DIR" default:"data" description:"Directory holding grants.js, the run log and backups"`
	GrantsFile  string `long:"grants-file" env:"GRANT_FILE" description:"Dashboard data file (default <data-dir>/grants.js)"`
	RunLogFile  string `long:"run-log" env:"GRANT_RUN_LOG" description:"Run log file (default <data-dir>/runs.json)"`
	Backend     string `long:"backend" env:"GRANT_BACKEND" default:"file" choice:"file" choice:"postgres" description:"Record store backend"`
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Postgres connection string for the postgres backend"`

	// Alerts
	WebhookURL            string `long:"webhook-url" env:"GRANT_WEBHOOK_URL" description:"Notification sink URL; alerts are skipped when empty"`
	WebhookTimeoutSeconds int    `long:"webhook-timeout" env:"GRANT_WEBHOOK_TIMEOUT" default:"10" description:"Notification sink timeout in seconds"`
	AlertThreshold        int    `long:"alert-threshold" env:"GRANT_ALERT_THRESHOLD" default:"85" description:"New grants scoring above this are alerted"`

	// Scoring and scanning
	WeightsFile string `long:"weights" env:"GRANT_WEIGHTS_FILE" description:"YAML file overriding the catalogue's scoring weights"`
	CatalogFile string `long:"catalog" env:"GRANT_CATALOG_FILE" description:"Scan catalogue YAML (default: embedded)"`
	Source      string `long:"source" env:"GRANT_SOURCE" default:"mock_scan" description:"Scan source id used by batch runs"`

	// Invocation
	Auto     bool   `long:"auto" description:"Run one batch and exit"`
	Schedule string `long:"schedule" env:"GRANT_SCHEDULE" description:"Cron expression for recurring batches (e.g. \"0 8 * * *\")"`
	Timezone string `long:"timezone" env:"GRANT_TIMEZONE" default:"UTC" description:"Timezone for the schedule"`

	// HTTP API
	Port        string `long:"port" env:"PORT" default:"8081" description:"HTTP server port"`
	AdminSecret string `long:"admin-secret" env:"ADMIN_SECRET" description:"Shared secret for admin endpoints"`
	JWTSecret   string `long:"jwt-secret" env:"JWT_SECRET" description:"HMAC secret for admin tokens (default: random per process)"`
	CORSOrigins string `long:"cors-origins" env:"CORS_ORIGINS" description:"Extra comma-separated CORS origins"`
}

// Load parses os.Args. It returns nil, nil when help was requested.
func Load() (*Options, error) {
	return parse(nil, nil)
}

// LoadWith also parses a tool's own flag struct from os.Args.
func LoadWith(extra any) (*Options, error) {
	return parse(nil, extra)
}

// Parse parses args plus environment fallbacks.
func Parse(args []string) (*Options, error) {
	if args == nil {
		args = []string{}
	}
	return parse(args, nil)
}

// parse reads os.Args[1:] when args is nil.
func parse(args []string, extra any) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if extra != nil {
		if _, err := parser.AddGroup("Command Options", "", extra); err != nil {
			return nil, fmt.Errorf("failed to register command options: %w", err)
		}
	}

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	opts.setDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// setDefaults fills values an empty environment variable may have blanked.
func (o *Options) setDefaults() {
	if o.DataDir == "" {
		o.DataDir = "data"
	}
	if o.GrantsFile == "" {
		o.GrantsFile = filepath.Join(o.DataDir, "grants.js")
	}
	if o.RunLogFile == "" {
		o.RunLogFile = filepath.Join(o.DataDir, "runs.json")
	}
	o.WebhookURL = strings.TrimSpace(o.WebhookURL)
}

func (o *Options) Validate() error {
	if o.Backend == BackendPostgres && o.DatabaseURL == "" {
		return fmt.Errorf("--database-url is required for the postgres backend")
	}
	if o.WebhookTimeoutSeconds <= 0 {
		return fmt.Errorf("webhook timeout must be positive")
	}
	if o.AlertThreshold < 0 || o.AlertThreshold > 100 {
		return fmt.Errorf("alert threshold must be within 0-100 (got %d)", o.AlertThreshold)
	}
	if o.Auto && o.Schedule != "" {
		return fmt.Errorf("--auto and --schedule are mutually exclusive")
	}
	if _, err := time.LoadLocation(o.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", o.Timezone, err)
	}
	return nil
}

func (o *Options) WebhookTimeout() time.Duration {
	return time.Duration(o.WebhookTimeoutSeconds) * time.Second
}

// Origins splits CORSOrigins into trimmed, non-empty entries.
func (o *Options) Origins() []string {
	var out []string
	for _, origin := range strings.Split(o.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
