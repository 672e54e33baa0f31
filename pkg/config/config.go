// Package config loads devstrap settings.
//
// Settings come from, in increasing precedence: built-in defaults, the YAML
// file at ~/.config/devstrap/config.yaml (or --config), DEVSTRAP_* environment
// variables and command-line flags. They only tune pinned tags and paths; the
// plan itself never changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jaspreet-dot-casa/devstrap/pkg/profile"
	"github.com/jaspreet-dot-casa/devstrap/pkg/steps"
)

const (
	// DirName is the name of the config directory under XDG_CONFIG_HOME.
	DirName = "devstrap"
	// FileName is the name of the config file.
	FileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. DEVSTRAP_NODE_MAJOR.
	EnvPrefix = "DEVSTRAP"
)

// Keys.
const (
	KeyProfile         = "profile"
	KeyNodeMajor       = "node_major"
	KeyKubernetesMinor = "kubernetes_minor"
	KeyDedupe          = "dedupe"
	KeyDryRun          = "dry_run"
	KeyVerbose         = "verbose"
	KeyReport          = "report"
)

// ErrInvalid is returned for settings that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config is the effective configuration.
type Config struct {
	Profile         string `mapstructure:"profile" yaml:"profile"` // Empty means pick from $SHELL
	NodeMajor       int    `mapstructure:"node_major" yaml:"node_major"`
	KubernetesMinor string `mapstructure:"kubernetes_minor" yaml:"kubernetes_minor"`
	Dedupe          bool   `mapstructure:"dedupe" yaml:"dedupe"`
	DryRun          bool   `mapstructure:"dry_run" yaml:"dry_run"`
	Verbose         int    `mapstructure:"verbose" yaml:"verbose"`
	Report          bool   `mapstructure:"report" yaml:"report"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// Dir returns the config directory ($XDG_CONFIG_HOME/devstrap).
func Dir() string {
	return filepath.Join(xdg.ConfigHome, DirName)
}

// FilePath returns the default config file path.
func FilePath() string {
	return filepath.Join(Dir(), FileName)
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyNodeMajor, steps.DefaultNodeMajor)
	v.SetDefault(KeyKubernetesMinor, steps.DefaultKubernetesMinor)
	v.SetDefault(KeyDedupe, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyVerbose, 0)
	v.SetDefault(KeyReport, true)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and returns the effective settings.
// An explicit file must exist; the default file is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	explicit := file != ""
	if !explicit {
		file = FilePath()
	}

	read := false
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		read = true
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", file, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if read {
		cfg.File = file
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the pinned tags.
func (c *Config) Validate() error {
	if c.NodeMajor <= 0 {
		return fmt.Errorf("%w: node_major must be positive, got %d", ErrInvalid, c.NodeMajor)
	}
	minor := strings.TrimPrefix(c.KubernetesMinor, "v")
	ver, err := semver.NewVersion(minor)
	if err != nil || ver.Patch() != 0 || strings.Count(minor, ".") != 1 {
		return fmt.Errorf("%w: kubernetes_minor must look like v1.29, got %q", ErrInvalid, c.KubernetesMinor)
	}
	return nil
}

// StepOptions returns the pinned tags for the plan.
func (c *Config) StepOptions() steps.Options {
	return steps.Options{
		NodeMajor:       c.NodeMajor,
		KubernetesMinor: c.KubernetesMinor,
	}
}

// ProfilePath returns the configured shell profile, or the default for shell.
func (c *Config) ProfilePath(home, shell string) string {
	if c.Profile == "" {
		return profile.DefaultPath(home, shell)
	}
	if strings.HasPrefix(c.Profile, "~/") {
		return filepath.Join(home, c.Profile[2:])
	}
	return c.Profile
}

// YAML renders the effective settings.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// Save writes the settings to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
