// Package config loads project settings from assistant/assistant_config.yaml,
// GMLINJECT_* environment variables and a project .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file looked up under the project root.
	FileName = "assistant/assistant_config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. GMLINJECT_SCRIPTS_DIR.
	EnvPrefix = "GMLINJECT"
)

// Config holds the settings of one project.
type Config struct {
	LibraryDirs   []string `mapstructure:"library_dirs"`
	ScriptsDir    string   `mapstructure:"scripts_dir"`
	GeneratorsDir string   `mapstructure:"generators_dir"`
	Database      string   `mapstructure:"database"`
	Extension     string   `mapstructure:"extension"`
	Workers       int      `mapstructure:"workers"`
	Parallel      bool     `mapstructure:"parallel"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		LibraryDirs:   []string{"assistant/.inject", "assistant/user_inject"},
		ScriptsDir:    "scripts",
		GeneratorsDir: "assistant/generators",
		Database:      "assistant/.gmlinject.db",
		Extension:     ".gml",
		Workers:       0,
		Parallel:      true,
	}
}

// Load reads the configuration for the project at root. When path is empty
// the default config file is used if present; an explicit path must exist.
// It returns the config and the file it was read from ("" for none).
func Load(ctx context.Context, root, path string) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	// A missing .env is normal.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("library_dirs", defaults.LibraryDirs)
	v.SetDefault("scripts_dir", defaults.ScriptsDir)
	v.SetDefault("generators_dir", defaults.GeneratorsDir)
	v.SetDefault("database", defaults.Database)
	v.SetDefault("extension", defaults.Extension)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("parallel", defaults.Parallel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	if path != "" {
		if !fileExists(path) {
			return nil, "", fmt.Errorf("config file not found: %s", path)
		}
		resolved = path
	} else if p := filepath.Join(root, filepath.FromSlash(FileName)); fileExists(p) {
		resolved = p
	}
	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", resolved, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Validate checks values that would otherwise fail later in a run.
func (c *Config) Validate() error {
	var errs []error
	if len(c.LibraryDirs) == 0 {
		errs = append(errs, errors.New("library_dirs must name at least one directory"))
	}
	if c.ScriptsDir == "" {
		errs = append(errs, errors.New("scripts_dir must not be empty"))
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		errs = append(errs, fmt.Errorf("extension %q must start with a dot", c.Extension))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DatabasePath returns the database location, resolved against root unless
// it is absolute.
func (c *Config) DatabasePath(root string) string {
	if filepath.IsAbs(c.Database) {
		return c.Database
	}
	return filepath.Join(root, filepath.FromSlash(c.Database))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
