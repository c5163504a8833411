// Package config loads tool-level configuration for versync.
//
// Tool configuration is distinct from the release policy: it covers how the
// binary behaves (logging, policy file location, lock command override), not
// which files a release touches. Values come from defaults, an optional
// versync.yaml, and VERSYNC_* environment variables, in that order.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all tool-level configuration for versync
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Summary SummaryConfig `mapstructure:"summary"`
}

// LogConfig holds logging options
type LogConfig struct {
	Level string `mapstructure:"level"` // debug | info | warn | error
	JSON  bool   `mapstructure:"json"`
	Color bool   `mapstructure:"color"`
}

// PolicyConfig points at the release policy file
type PolicyConfig struct {
	Path string `mapstructure:"path"`
}

// SummaryConfig controls the end-of-run report
type SummaryConfig struct {
	Box bool `mapstructure:"box"` // draw the boxed per-location summary
}

var defaultConfig = Config{
	Log: LogConfig{
		Level: "info",
		JSON:  false,
		Color: true,
	},
	Policy: PolicyConfig{
		Path: ".versync/release-policy.yaml",
	},
	Summary: SummaryConfig{
		Box: true,
	},
}

// LoadConfig loads configuration from defaults, an optional config file, and
// the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", defaultConfig.Log.Level)
	v.SetDefault("log.json", defaultConfig.Log.JSON)
	v.SetDefault("log.color", defaultConfig.Log.Color)
	v.SetDefault("policy.path", defaultConfig.Policy.Path)
	v.SetDefault("summary.box", defaultConfig.Summary.Box)

	// Configuration file search paths
	v.SetConfigName("versync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // Current directory
	v.AddConfigPath("$HOME") // Home directory

	// Environment variables
	v.SetEnvPrefix("VERSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (optional); ignore error to use defaults
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	return &config, nil
}
