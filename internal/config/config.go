package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/formatter"
	"github.com/mcncl/pytyper/internal/logging"
)

// Config represents the complete configuration for pytyper
type Config struct {
	RootName             string        `yaml:"root_name" toml:"root_name"`
	Style                string        `yaml:"style" toml:"style"`
	Dedupe               string        `yaml:"dedupe" toml:"dedupe"`
	DetectSpecialStrings bool          `yaml:"detect_special_strings" toml:"detect_special_strings"`
	UnionAliases         bool          `yaml:"union_aliases" toml:"union_aliases"`
	Indent               string        `yaml:"indent" toml:"indent"`
	Input                InputConfig   `yaml:"input" toml:"input"`
	Output               OutputConfig  `yaml:"output" toml:"output"`
	Logging              LoggingConfig `yaml:"logging" toml:"logging"`
}

// InputConfig controls how the input text is turned into samples
type InputConfig struct {
	// Mode is "single" (one JSON value) or "stream" (one sample per value).
	Mode  string `yaml:"mode" toml:"mode"`
	Query string `yaml:"query" toml:"query"`
}

// OutputConfig controls output generation options
type OutputConfig struct {
	FileHeader string `yaml:"file_header" toml:"file_header"`
}

// LoggingConfig controls the diagnostic log
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

const (
	InputModeSingle = "single"
	InputModeStream = "stream"
)

var configNames = []string{".pytyper.yml", ".pytyper.yaml", ".pytyper.toml", "pytyper.yml", "pytyper.yaml", "pytyper.toml"}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	logs := logging.DefaultConfig()
	return &Config{
		RootName:     "Root",
		Style:        "dataclass",
		Dedupe:       "structure",
		UnionAliases: true,
		Indent:       "4",
		Input: InputConfig{
			Mode: InputModeSingle,
		},
		Logging: LoggingConfig{
			Level:      logs.Level,
			MaxSizeMB:  logs.MaxSizeMB,
			MaxBackups: logs.MaxBackups,
			MaxAgeDays: logs.MaxAgeDays,
		},
	}
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by
// extension. Keys absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	cfg := NewConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.NewConfigError("failed to parse config file", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewConfigError("failed to parse config file", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findConfigFrom(currentDir)
}

func findConfigFrom(dir string) string {
	for {
		for _, name := range configNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			return ""
		}
		dir = parentDir
	}
}

// Validate checks the enumerated settings. Style names are checked by the
// generator, which owns the list.
func (c *Config) Validate() error {
	switch c.Dedupe {
	case "structure", "path":
	default:
		return errors.NewConfigError(fmt.Sprintf("dedupe must be \"structure\" or \"path\", got %q", c.Dedupe), errors.ErrInvalidConfig)
	}
	switch c.Input.Mode {
	case InputModeSingle, InputModeStream:
	default:
		return errors.NewConfigError(fmt.Sprintf("input.mode must be %q or %q, got %q", InputModeSingle, InputModeStream, c.Input.Mode), errors.ErrInvalidConfig)
	}
	if _, err := c.IndentWidth(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewConfigError(fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level), errors.ErrInvalidConfig)
	}
	return nil
}

// IndentWidth returns the number of spaces per indentation level, or
// formatter.TabIndent for tabs.
func (c *Config) IndentWidth() (int, error) {
	if strings.EqualFold(c.Indent, "tab") {
		return formatter.TabIndent, nil
	}
	n, err := strconv.Atoi(c.Indent)
	if err != nil || n < 1 || n > 8 {
		return 0, errors.NewConfigError(fmt.Sprintf("indent must be 1-8 or \"tab\", got %q", c.Indent), errors.ErrInvalidConfig)
	}
	return n, nil
}

// Stream reports whether every top-level JSON value is a separate sample.
func (c *Config) Stream() bool {
	return c.Input.Mode == InputModeStream
}

// Overrides carries values set on the command line. Nil pointers and empty
// strings leave the file value in place.
type Overrides struct {
	RootName             string
	Style                string
	Dedupe               string
	Indent               string
	Query                string
	Stream               *bool
	DetectSpecialStrings *bool
	Debug                bool
}

// LoadConfigWithCLI loads the config file, when given, and applies CLI
// overrides on top of it.
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if o.RootName != "" {
		cfg.RootName = o.RootName
	}
	if o.Style != "" {
		cfg.Style = o.Style
	}
	if o.Dedupe != "" {
		cfg.Dedupe = o.Dedupe
	}
	if o.Indent != "" {
		cfg.Indent = o.Indent
	}
	if o.Query != "" {
		cfg.Input.Query = o.Query
	}
	if o.Stream != nil {
		cfg.Input.Mode = InputModeSingle
		if *o.Stream {
			cfg.Input.Mode = InputModeStream
		}
	}
	if o.DetectSpecialStrings != nil {
		cfg.DetectSpecialStrings = *o.DetectSpecialStrings
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
