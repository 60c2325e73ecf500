package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete patchkit configuration.
type Config struct {
	// Home is the default installation home
	Home string `yaml:"home"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// ConfigurationDirs are misc directories backed up whenever a patch is
	// applied and restored by rollbacks that reset configuration
	ConfigurationDirs []string `yaml:"configuration_dirs"`

	// Policy is the default content verification policy
	Policy PolicyConfig `yaml:"policy"`
}

// PolicyConfig configures how content conflicts are resolved by default.
type PolicyConfig struct {
	OverrideAll         bool `yaml:"override_all"`
	PreserveAll         bool `yaml:"preserve_all"`
	IgnoreModuleChanges bool `yaml:"ignore_module_changes"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		ConfigurationDirs: []string{
			"standalone/configuration",
			"domain/configuration",
		},
	}
}

// Load reads and parses the configuration file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Home = os.ExpandEnv(cfg.Home)
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if home := os.Getenv(EnvHome); home != "" {
		c.Home = home
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
}

// Validate checks the configuration for contradictory settings.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	if c.Policy.OverrideAll && c.Policy.PreserveAll {
		return fmt.Errorf("invalid policy: override_all and preserve_all are mutually exclusive")
	}
	return nil
}
