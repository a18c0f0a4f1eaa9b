// Package config loads the sync engine's configuration from a layered
// set of sources: defaults, a TOML file found by a fixed search order,
// and NCTS_-prefixed environment variables, in that order of increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "NCTS"
	fileName   = "nextcloud-tag-sync"
	fileFormat = "toml"
)

// PrefixPair is the raw, unvalidated form of a configured prefix pair
// as it appears in the configuration file.
type PrefixPair struct {
	Local  string `mapstructure:"local"`
	Remote string `mapstructure:"remote"`
}

// Config is the loaded configuration. Load checks required fields and
// value ranges before returning it; the prefix pairs stay in raw form
// and are validated when the sync engine is built.
type Config struct {
	Path                  string
	TagDatabase           string       `mapstructure:"tag_database"`
	KeepSideOnConflict    string       `mapstructure:"keep_side_on_conflict"`
	NextcloudInstance     string       `mapstructure:"nextcloud_instance"`
	User                  string       `mapstructure:"user"`
	Token                 string       `mapstructure:"token"`
	DryRun                bool         `mapstructure:"dry_run"`
	Prefixes              []PrefixPair `mapstructure:"prefixes"`
	MaxConcurrentRequests int          `mapstructure:"max_concurrent_requests"`
	LocalTagPropertyName  string       `mapstructure:"local_tag_property_name"`
}

// LoadError wraps a configuration problem — a missing/unreadable file,
// a malformed value, a failed validation — that should make the
// program exit with the configuration-error exit code rather than the
// fatal-abort one, since the sync engine itself never ran.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("config: %s", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(format string, args ...any) error {
	return &LoadError{Err: fmt.Errorf(format, args...)}
}

// Load reads configuration from explicitPath if non-empty, otherwise
// searches the current directory, the user config directory, and each
// ancestor of the current directory, in that order. Values are then
// overridden by NCTS_-prefixed environment variables.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("max_concurrent_requests", 10)
	v.SetDefault("keep_side_on_conflict", "Both")
	v.SetDefault("local_tag_property_name", "user.xdg.tags")
	v.SetDefault("dry_run", false)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType(fileFormat)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "nextcloud-tag-sync"))
		}
		for _, dir := range ancestors(mustGetwd()) {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, loadErr("read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, loadErr("decode %s: %w", v.ConfigFileUsed(), err)
	}
	cfg.Path = v.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.NextcloudInstance == "" {
		return loadErr("nextcloud_instance is required")
	}
	if c.User == "" {
		return loadErr("user is required")
	}
	if c.TagDatabase == "" {
		return loadErr("tag_database is required")
	}
	if len(c.Prefixes) == 0 {
		return loadErr("at least one prefix pair is required")
	}
	if c.MaxConcurrentRequests <= 0 {
		return loadErr("max_concurrent_requests must be positive, got %d", c.MaxConcurrentRequests)
	}
	switch c.KeepSideOnConflict {
	case "Both", "Left", "Right":
	default:
		return loadErr("keep_side_on_conflict must be Both, Left, or Right, got %q", c.KeepSideOnConflict)
	}
	return nil
}

// String renders the config with Token redacted to its last three
// characters, safe to include in logs.
func (c *Config) String() string {
	token := c.Token
	if len(token) > 3 {
		token = strings.Repeat("*", len(token)-3) + token[len(token)-3:]
	} else if token != "" {
		token = strings.Repeat("*", len(token))
	}
	return fmt.Sprintf(
		"Config{path=%s tag_database=%s keep_side_on_conflict=%s nextcloud_instance=%s user=%s token=%s dry_run=%t prefixes=%d max_concurrent_requests=%d local_tag_property_name=%s}",
		c.Path, c.TagDatabase, c.KeepSideOnConflict, c.NextcloudInstance, c.User, token, c.DryRun, len(c.Prefixes), c.MaxConcurrentRequests, c.LocalTagPropertyName,
	)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// ancestors returns dir and each of its parent directories up to root.
func ancestors(dir string) []string {
	var dirs []string
	for {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}
