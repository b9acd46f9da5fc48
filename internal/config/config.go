// Package config loads faultdrill settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/faultdrill/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "faultdrill.yaml"

// Environment overrides.
const (
	EnvDataDir  = "FAULTDRILL_DATA_DIR"
	EnvBackend  = "FAULTDRILL_BACKEND"
	EnvLogLevel = "FAULTDRILL_LOG_LEVEL"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config holds every faultdrill setting.
type Config struct {
	// DataDir anchors every relative path below.
	DataDir    string                  `yaml:"data_dir" validate:"required"`
	Store      StoreConfig             `yaml:"store"`
	Documents  DocumentsConfig         `yaml:"documents"`
	Queue      QueueConfig             `yaml:"queue"`
	Outputs    OutputsConfig           `yaml:"outputs"`
	Simulation SimulationConfig        `yaml:"simulation"`
	Watch      WatchConfig             `yaml:"watch"`
	Logging    telemetry.LoggingConfig `yaml:"logging"`
	Metrics    telemetry.MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects and locates the work-order store.
type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=csv sqlite"`
	CSVPath     string `yaml:"csv_path" validate:"required"`
	CounterPath string `yaml:"counter_path" validate:"required"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required"`
}

// DocumentsConfig controls the per-order detail documents.
type DocumentsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required_if=Enabled true"`
}

// QueueConfig controls the supervisor queue view.
type QueueConfig struct {
	Limit int `yaml:"limit" validate:"min=1"`
}

// OutputsConfig names the end-of-run files.
type OutputsConfig struct {
	FaultLog string `yaml:"fault_log" validate:"required"`
	Report   string `yaml:"report" validate:"required"`
	History  string `yaml:"history" validate:"required"`
}

// SimulationConfig drives the training loop.
type SimulationConfig struct {
	// Rounds is the number of faults per run.
	Rounds int `yaml:"rounds" validate:"min=1"`
	// Technician is console (interactive) or scripted.
	Technician string        `yaml:"technician" validate:"oneof=console scripted"`
	Accuracy   float64       `yaml:"accuracy" validate:"min=0,max=1"`
	Seed       int64         `yaml:"seed"`
	MinDelay   time.Duration `yaml:"min_delay" validate:"min=0"`
	MaxDelay   time.Duration `yaml:"max_delay" validate:"gtefield=MinDelay"`
	// StopOnStopWork ends the run as soon as the site reaches STOP WORK.
	StopOnStopWork bool `yaml:"stop_on_stop_work"`
}

// WatchConfig controls the periodic breach scanner.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval" validate:"min=1s"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: ".",
		Store: StoreConfig{
			Backend:     BackendCSV,
			CSVPath:     "work_orders.csv",
			CounterPath: "wo_counter.txt",
			SQLitePath:  "faultdrill.db",
		},
		Documents: DocumentsConfig{Enabled: true, Dir: "work_orders"},
		Queue:     QueueConfig{Limit: 15},
		Outputs: OutputsConfig{
			FaultLog: "fault_log.txt",
			Report:   "report_summary.txt",
			History:  "fault_history.csv",
		},
		Simulation: SimulationConfig{
			Rounds:         10,
			Technician:     "console",
			Accuracy:       0.8,
			MinDelay:       3 * time.Second,
			MaxDelay:       7 * time.Second,
			StopOnStopWork: true,
		},
		Watch:   WatchConfig{Interval: 30 * time.Second},
		Logging: telemetry.DefaultLoggingConfig(),
		Metrics: telemetry.DefaultMetricsConfig(),
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(getenv(EnvBackend)); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fieldRule(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Path resolves p against DataDir unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
