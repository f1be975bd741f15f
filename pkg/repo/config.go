package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Config stores repository-local settings.
type Config struct {
	User   UserConfig   `toml:"user"`
	Log    LogConfig    `toml:"log"`
	Commit CommitConfig `toml:"commit"`
}

// UserConfig names the author recorded in new commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// LogConfig bounds history walks. MaxDepth of zero means unbounded.
type LogConfig struct {
	MaxDepth int `toml:"max_depth"`
}

// CommitConfig holds commit defaults.
type CommitConfig struct {
	SignKey string `toml:"sign_key"`
}

// DefaultConfig returns the configuration written by Init.
func DefaultConfig() *Config {
	return &Config{}
}

// Identity formats the configured user as "name <email>". It returns ""
// when no name is configured.
func (c *Config) Identity() string {
	name := strings.TrimSpace(c.User.Name)
	if name == "" {
		return ""
	}
	if email := strings.TrimSpace(c.User.Email); email != "" {
		return fmt.Sprintf("%s <%s>", name, email)
	}
	return name
}

func (r *Repo) configPath() string {
	return filepath.Join(r.LutDir, "config.toml")
}

// ReadConfig reads .lut/config.toml. Missing config returns defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	if r.LutDir == "" {
		return DefaultConfig(), nil
	}
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(r.configPath(), cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if cfg.Log.MaxDepth < 0 {
		return nil, fmt.Errorf("read config: log.max_depth must not be negative, got %d", cfg.Log.MaxDepth)
	}
	return cfg, nil
}

// WriteConfig atomically writes .lut/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if r.LutDir == "" {
		return fmt.Errorf("write config: %w", ErrNotOnFilesystem)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tmp, err := os.CreateTemp(r.LutDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		err = multierr.Combine(err, tmp.Close(), os.Remove(tmpName))
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		err = multierr.Append(err, os.Remove(tmpName))
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}
