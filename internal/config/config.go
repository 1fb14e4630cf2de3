package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoHomeDir is returned when the user's home directory cannot be determined.
var ErrNoHomeDir = errors.New("cannot determine home directory")

// Engine names accepted by the engine key.
const (
	EngineAuto     = "auto"
	EngineSevenZip = "7z"
	EngineNative   = "native"
)

// LogConfig controls the structured log output.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Config struct {
	Engine              string    `yaml:"engine"`
	SevenZipPath        string    `yaml:"seven_zip_path,omitempty"`
	StagingPrefix       string    `yaml:"staging_prefix"`
	MoveToTrash         bool      `yaml:"move_to_trash"`
	ShowCompletion      bool      `yaml:"show_completion"`
	VerifyBeforeExtract bool      `yaml:"verify_before_extract"`
	Quiet               bool      `yaml:"quiet"`
	Log                 LogConfig `yaml:"log"`
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHomeDir, err)
	}
	if home == "" {
		return "", ErrNoHomeDir
	}
	return home, nil
}

func DefaultConfig() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Engine:         EngineAuto,
		StagingPrefix:  "gunzip",
		ShowCompletion: true,
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			File:       filepath.Join(home, ".gunzip", "logs", "gunzip.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}, nil
}

func ConfigPath() (string, error) {
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gunzip", "config.yaml"), nil
}

// Load reads the config file, falling back to defaults when it does not exist.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

var stagingPrefixPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Validate rejects values the extraction pipeline cannot use.
func (c *Config) Validate() error {
	var errs []error

	switch c.Engine {
	case EngineAuto, EngineSevenZip, EngineNative:
	default:
		errs = append(errs, fmt.Errorf("engine %q: must be one of %s, %s, %s", c.Engine, EngineAuto, EngineSevenZip, EngineNative))
	}

	if !stagingPrefixPattern.MatchString(c.StagingPrefix) {
		errs = append(errs, fmt.Errorf("staging_prefix %q: must be non-empty and contain only letters, digits, '.', '_' or '-'", c.StagingPrefix))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: must be debug, info, warn or error", c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be text or json", c.Log.Format))
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}

	return errors.Join(errs...)
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
