package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/stsh/internal/logging"
	"github.com/marcelocantos/stsh/internal/pipeline"
)

// EnvPrefix prefixes every environment override, e.g. STSH_LOG_LEVEL.
const EnvPrefix = "STSH"

// Config holds the global stsh configuration.
type Config struct {
	Shell ShellConfig `yaml:"shell" split_words:"true"`
	Spawn SpawnConfig `yaml:"spawn" split_words:"true"`
	Audit AuditConfig `yaml:"audit" split_words:"true"`
	Log   LogConfig   `yaml:"log" split_words:"true"`
}

// ShellConfig controls the interactive prompt.
type ShellConfig struct {
	Prompt      string `yaml:"prompt" split_words:"true" validate:"required"`
	HistoryFile string `yaml:"history_file" split_words:"true"`
}

// SpawnConfig controls how commands are started.
type SpawnConfig struct {
	// DieWithParent asks the kernel to kill each command if the shell dies
	// first. Honoured on Linux only.
	DieWithParent bool `yaml:"die_with_parent" split_words:"true"`
}

// AuditConfig controls audit log settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true" validate:"required_if=Enabled true"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level       string   `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Development bool     `yaml:"development" split_words:"true"`
	OutputPaths []string `yaml:"output_paths" split_words:"true"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Shell: ShellConfig{
			Prompt:      "stsh> ",
			HistoryFile: filepath.Join(home, ".local", "share", "stsh", "history"),
		},
		Spawn: SpawnConfig{
			DieWithParent: true,
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join(home, ".local", "share", "stsh", "audit.jsonl"),
		},
		Log: LogConfig{
			Level:       "error",
			OutputPaths: []string{"stderr"},
		},
	}
}

// LoadFrom reads the config at path from fsys, applies STSH_* environment
// overrides, expands ~ and validates the result. A missing file yields the
// defaults.
func LoadFrom(fsys afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}

	cfg.Shell.HistoryFile = expandHome(cfg.Shell.HistoryFile)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and reports the first violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("invalid config: %s fails %q", strings.ToLower(fe.Namespace()), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}

// SpawnOptions converts the spawn section into executor options.
func (c *Config) SpawnOptions() pipeline.SpawnOptions {
	return pipeline.SpawnOptions{DieWithParent: c.Spawn.DieWithParent}
}

// LoggingConfig converts the log section into logger settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development,
		OutputPaths: c.Log.OutputPaths,
	}
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stsh", "config.yaml")
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, path[1:])
}
