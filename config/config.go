// Package config defines the application configuration for the live board
// and loads it from JSON or YAML files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/krisvansteen/Dashboards/errors"
)

// Duration wraps time.Duration so config files can use human-readable
// values like "2s" in both JSON and YAML.
type Duration time.Duration

// UnmarshalJSON parses a JSON string ("2s") or number (nanoseconds).
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(value))
	default:
		return fmt.Errorf("invalid duration type %T", v)
	}
	return nil
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML parses a YAML scalar like "2s".
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the complete application configuration
type Config struct {
	Version string       `json:"version"          yaml:"version"`
	NATS    NATSConfig   `json:"nats"             yaml:"nats"`
	Board   BoardConfig  `json:"board"            yaml:"board"`
	HTTP    HTTPConfig   `json:"http"             yaml:"http"`
	Notify  NotifyConfig `json:"notify,omitempty" yaml:"notify,omitempty"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL           string   `json:"url"                      yaml:"url"`
	Name          string   `json:"name,omitempty"           yaml:"name,omitempty"`
	MaxReconnects int      `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Username      string   `json:"username,omitempty"       yaml:"username,omitempty"`
	Password      string   `json:"password,omitempty"       yaml:"password,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
}

// ColumnTable configures the column order and display titles for all topics
// sharing a prefix. Entries are matched in declaration order, first match
// wins.
type ColumnTable struct {
	Prefix string            `json:"prefix"           yaml:"prefix"`
	Order  []string          `json:"order"            yaml:"order"`
	Titles map[string]string `json:"titles,omitempty" yaml:"titles,omitempty"`
}

// BoardConfig defines the topic cache behavior
type BoardConfig struct {
	// BaseTopic is the root of the wildcard subscription, e.g. "race"
	// subscribes to every topic under race/.
	BaseTopic string `json:"base_topic" yaml:"base_topic"`
	// DeleteSuffix marks command channels, e.g. "/delete". Topics carrying
	// it are never cached.
	DeleteSuffix string        `json:"delete_suffix,omitempty" yaml:"delete_suffix,omitempty"`
	Columns      []ColumnTable `json:"columns,omitempty"       yaml:"columns,omitempty"`
}

// HTTPConfig defines the API server settings
type HTTPConfig struct {
	Port           int      `json:"port"                       yaml:"port"`
	EnableCORS     bool     `json:"enable_cors,omitempty"      yaml:"enable_cors,omitempty"`
	CORSOrigins    []string `json:"cors_origins,omitempty"     yaml:"cors_origins,omitempty"`
	AdminToken     string   `json:"admin_token,omitempty"      yaml:"admin_token,omitempty"`
	MaxRequestSize int64    `json:"max_request_size,omitempty" yaml:"max_request_size,omitempty"`
}

// NotifyConfig defines the WebSocket refresh hub settings
type NotifyConfig struct {
	Path         string `json:"path,omitempty"          yaml:"path,omitempty"`
	ClientBuffer int    `json:"client_buffer,omitempty" yaml:"client_buffer,omitempty"`
}

// Default returns a configuration with working defaults for a local broker
// and the race results deployment this board was built for.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Name:          "liveboard",
			MaxReconnects: -1,
			ReconnectWait: Duration(2 * time.Second),
		},
		Board: BoardConfig{
			BaseTopic:    "race",
			DeleteSuffix: "/delete",
		},
		HTTP: HTTPConfig{
			Port:           8080,
			MaxRequestSize: 1 << 20,
		},
		Notify: NotifyConfig{
			Path:         "/ws",
			ClientBuffer: 8,
		},
	}
}

// Load reads a configuration file, choosing the decoder by extension
// (.yaml/.yml for YAML, anything else JSON), and applies defaults for
// omitted sections.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config", "Load", "read file")
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "decode YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "decode JSON")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for structural errors
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "config", "Validate", "nats.url")
	}

	if c.Board.BaseTopic == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "config", "Validate", "board.base_topic")
	}
	// Dots are reserved by the subject mapping; topics are /-separated.
	if strings.Contains(c.Board.BaseTopic, ".") {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			"board.base_topic must use / separators, not dots")
	}
	if c.Board.DeleteSuffix != "" && !strings.HasPrefix(c.Board.DeleteSuffix, "/") {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			"board.delete_suffix must start with /")
	}

	for i, table := range c.Board.Columns {
		if table.Prefix == "" {
			return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("board.columns[%d].prefix is empty", i))
		}
		if strings.Contains(table.Prefix, ".") {
			return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("board.columns[%d].prefix must use / separators, not dots", i))
		}
		if len(table.Order) == 0 {
			return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("board.columns[%d].order is empty", i))
		}
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.MaxRequestSize <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			"http.max_request_size must be positive")
	}

	if c.Notify.ClientBuffer < 1 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			"notify.client_buffer must be at least 1")
	}
	if c.Notify.Path != "" && !strings.HasPrefix(c.Notify.Path, "/") {
		return errors.WrapFatal(errors.ErrInvalidConfig, "config", "Validate",
			"notify.path must start with /")
	}

	return nil
}
