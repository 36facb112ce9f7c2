package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults when the corresponding fields are unset.
const (
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultFailurePolicy    = "abort"
	DefaultMetricsNamespace = "bark"

	defaultSoakBags       = 64
	defaultSoakNames      = 4
	defaultSoakPublishers = 4
	defaultSoakChurners   = 2
	defaultSoakPublishes  = 1000
)

// SoakConfig sizes the soak workload.
type SoakConfig struct {
	Bags           int `json:"bags" yaml:"bags" toml:"bags"`
	Names          int `json:"names" yaml:"names" toml:"names"`
	Publishers     int `json:"publishers" yaml:"publishers" toml:"publishers"`
	Churners       int `json:"churners" yaml:"churners" toml:"churners"`
	Publishes      int `json:"publishes" yaml:"publishes" toml:"publishes"`
	HandlerDelayMS int `json:"handler_delay_ms" yaml:"handler_delay_ms" toml:"handler_delay_ms"`
}

// Config holds runtime parameters for the bark CLI.
// Zero values mean "unspecified" and are replaced by ApplyDefaults. An empty
// Addr stays empty: the introspection API is only served when asked for.
type Config struct {
	Addr             string     `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel         string     `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat        string     `json:"log_format" yaml:"log_format" toml:"log_format"`
	FailurePolicy    string     `json:"failure_policy" yaml:"failure_policy" toml:"failure_policy"`
	MetricsNamespace string     `json:"metrics_namespace" yaml:"metrics_namespace" toml:"metrics_namespace"`
	CORSEnabled      bool       `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins      []string   `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Soak             SoakConfig `json:"soak" yaml:"soak" toml:"soak"`
}

// unsupportedExtensionError is returned by Load for unknown file types.
type unsupportedExtensionError struct{ ext string }

func (e unsupportedExtensionError) Error() string {
	return "unsupported config extension: " + e.ext
}

// IsUnsupportedExtension reports whether err was caused by an unknown config file extension.
func IsUnsupportedExtension(err error) bool {
	_, ok := err.(unsupportedExtensionError)
	return ok
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml. A leading "~/" is expanded.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := expandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, unsupportedExtensionError{ext: ext}
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = DefaultFailurePolicy
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = DefaultMetricsNamespace
	}
	if c.CORSEnabled && len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	s := &c.Soak
	if s.Bags <= 0 {
		s.Bags = defaultSoakBags
	}
	if s.Names <= 0 {
		s.Names = defaultSoakNames
	}
	if s.Publishers <= 0 {
		s.Publishers = defaultSoakPublishers
	}
	if s.Churners < 0 {
		s.Churners = 0
	}
	if s.Publishes <= 0 {
		s.Publishes = defaultSoakPublishes
	}
	if s.HandlerDelayMS < 0 {
		s.HandlerDelayMS = 0
	}
}
