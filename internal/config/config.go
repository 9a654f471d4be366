// Package config provides configuration for the parttrack CLI and web server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for every environment override.
const EnvPrefix = "PARTTRACK_"

// Config holds the configuration for every parttrack entry point.
type Config struct {
	// DataDir is the base directory for the database, audit log and labels
	DataDir string `json:"data_dir" yaml:"data_dir" validate:"required"`

	// Database is the SQLite file holding the connection log
	Database string `json:"database" yaml:"database"`

	// CatalogPath is an optional part catalog file; empty uses the built-in catalog
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`

	// AuditLog receives one JSON line per row removed by prune
	AuditLog string `json:"audit_log" yaml:"audit_log"`

	// LabelDir is where allocate --labels writes PNG labels
	LabelDir string `json:"label_dir" yaml:"label_dir"`

	Log        LogConfig        `json:"log" yaml:"log"`
	Tracker    TrackerConfig    `json:"tracker" yaml:"tracker"`
	Interfaces InterfacesConfig `json:"interfaces" yaml:"interfaces"`
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	// Mode is production (JSON) or development (console)
	Mode string `json:"mode" yaml:"mode" validate:"oneof=production development"`
}

// TrackerConfig holds the write-path policy switches.
type TrackerConfig struct {
	// Strict rejects a connection when the part already has an active
	// outgoing edge to a different part. Off means last write wins.
	Strict bool `json:"strict" yaml:"strict"`

	// Bidirectional records every connection as two symmetric rows. The
	// mirror row is the target's latest scan, so it replaces whatever
	// forward link the target had: scanning A->B after B->C leaves B
	// pointing at A. Disconnects are mirrored only while the target still
	// points back at the disconnected part.
	Bidirectional bool `json:"bidirectional" yaml:"bidirectional"`

	// EnforceOrder rejects connections the catalog ordering does not allow.
	EnforceOrder bool `json:"enforce_order" yaml:"enforce_order"`
}

// InterfacesConfig toggles the outer surfaces.
type InterfacesConfig struct {
	// Web enables the serve command
	Web bool `json:"web" yaml:"web"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Addr            string        `json:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/parttrack",
		Log: LogConfig{
			Mode: "production",
		},
		Tracker: TrackerConfig{
			EnforceOrder: true,
		},
		Interfaces: InterfacesConfig{
			Web: true,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the effective configuration: defaults, then the optional
// file at path, then an optional .env file, then PARTTRACK_* variables.
// The result is resolved and validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	// A missing .env is normal; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve fills paths derived from DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/parttrack"
	}
	if c.Database == "" {
		c.Database = filepath.Join(c.DataDir, "parttrack.db")
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(c.DataDir, "cleanup_audit.log")
	}
	if c.LabelDir == "" {
		c.LabelDir = filepath.Join(c.DataDir, "labels")
	}
}

var validate = validator.New()

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// EnsureDirectories creates the directories the configured paths live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.Database),
		filepath.Dir(c.AuditLog),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv applies PARTTRACK_* environment overrides to cfg.
func LoadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"DATA_DIR":  &cfg.DataDir,
		"DB":        &cfg.Database,
		"CATALOG":   &cfg.CatalogPath,
		"AUDIT_LOG": &cfg.AuditLog,
		"LABEL_DIR": &cfg.LabelDir,
		"LOG_MODE":  &cfg.Log.Mode,
		"HTTP_ADDR": &cfg.HTTP.Addr,
	}
	for name, dst := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"STRICT":        &cfg.Tracker.Strict,
		"BIDIRECTIONAL": &cfg.Tracker.Bidirectional,
		"ENFORCE_ORDER": &cfg.Tracker.EnforceOrder,
		"WEB_ENABLED":   &cfg.Interfaces.Web,
	}
	for name, dst := range bools {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			b, err := parseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	if v := os.Getenv(EnvPrefix + "HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sHTTP_SHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}

	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", v)
	}
}
