package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "planner.yaml"

// Environment variables overriding file settings.
const (
	EnvStorageRoot   = "PLANNER_STORAGE_ROOT"
	EnvLogLevel      = "PLANNER_LOG_LEVEL"
	EnvLogFormat     = "PLANNER_LOG_FORMAT"
	EnvGitAutoCommit = "PLANNER_GIT_AUTO_COMMIT"
)

// Built-in account names.
const (
	UserAdmin  = "admin"
	UserEditor = "editor"
	UserViewer = "viewer"
)

// Config represents the top-level planner.yaml configuration.
type Config struct {
	Storage       StorageConfig         `yaml:"storage"`
	Log           LogConfig             `yaml:"log"`
	Git           GitConfig             `yaml:"git"`
	Users         map[string]UserConfig `yaml:"users,omitempty"`
	Subcategories []string              `yaml:"subcategories,omitempty"`
}

// StorageConfig locates the document directory.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// GitConfig controls git history of the storage directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// UserConfig holds the credentials a built-in account is seeded with.
type UserConfig struct {
	InitialPassword string `yaml:"initial_password"`
}

// Load reads a planner.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults. An empty root means "data".
func Default(root string) *Config {
	if root == "" {
		root = "data"
	}
	return &Config{
		Storage: StorageConfig{Root: root},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Planner",
			AuthorEmail: "planner@localhost",
		},
		Users: map[string]UserConfig{
			UserAdmin:  {InitialPassword: "admin"},
			UserEditor: {InitialPassword: "editor"},
			UserViewer: {InitialPassword: "viewer"},
		},
	}
}

// Resolve loads path if it exists, falls back to defaults otherwise, loads a
// .env file from the working directory, applies environment overrides and
// validates the result.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default("")
	} else if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from PLANNER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvStorageRoot); v != "" {
		c.Storage.Root = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvGitAutoCommit); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvGitAutoCommit, err)
		}
		c.Git.AutoCommit = b
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Storage.Root) == "" {
		problems = append(problems, "storage root cannot be empty")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.Log.Format))
	}

	if c.Git.AutoCommit {
		if c.Git.AuthorName == "" {
			problems = append(problems, "git author name is required when auto_commit is enabled")
		}
		if c.Git.AuthorEmail == "" {
			problems = append(problems, "git author email is required when auto_commit is enabled")
		}
	}

	for _, name := range []string{UserAdmin, UserEditor, UserViewer} {
		if c.Users[name].InitialPassword == "" {
			problems = append(problems, fmt.Sprintf("initial password for user '%s' cannot be empty", name))
		}
	}
	for name := range c.Users {
		switch name {
		case UserAdmin, UserEditor, UserViewer:
		default:
			problems = append(problems, fmt.Sprintf("unknown user '%s': must be one of admin, editor, viewer", name))
		}
	}

	for i, label := range c.Subcategories {
		if strings.TrimSpace(label) == "" {
			problems = append(problems, fmt.Sprintf("subcategory %d is empty", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
