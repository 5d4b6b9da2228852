// Package config loads mcmcviz CLI settings from a YAML file and
// MCMCVIZ_* environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/mcmcviz/engine"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MCMCVIZ_"

// Formats accepted by --format.
var Formats = []string{"json", "pretty", "csv", "text"}

// Config holds CLI defaults. Zero values for the statistical fields mean
// "use the recipe default".
type Config struct {
	Scheme       string  `yaml:"scheme" env:"SCHEME"`
	Prob         float64 `yaml:"prob" env:"PROB"`
	ProbOuter    float64 `yaml:"prob_outer" env:"PROB_OUTER"`
	Freq         *bool   `yaml:"freq" env:"FREQ"`
	Style        string  `yaml:"style" env:"STYLE"`
	Bins         int     `yaml:"bins" env:"BINS"`
	MaxTreedepth int     `yaml:"max_treedepth" env:"MAX_TREEDEPTH"`

	Format   string `yaml:"format" env:"FORMAT"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Scheme:   engine.SchemeBlue.Name,
		Format:   "json",
		LogLevel: "info",
	}
}

// Load applies defaults, then the YAML file at path (skipped when path is
// empty or the file does not exist), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks every field against what the engine accepts.
func (c *Config) Validate() error {
	if _, err := engine.SchemeByName(c.Scheme); err != nil {
		return fmt.Errorf("scheme: %w", err)
	}
	if c.Prob < 0 || c.Prob > 1 {
		return fmt.Errorf("prob must be in [0, 1], got %v", c.Prob)
	}
	if c.ProbOuter < 0 || c.ProbOuter > 1 {
		return fmt.Errorf("prob_outer must be in [0, 1], got %v", c.ProbOuter)
	}
	if c.Prob > 0 && c.ProbOuter > 0 && c.ProbOuter < c.Prob {
		return fmt.Errorf("prob_outer (%v) must be at least prob (%v)", c.ProbOuter, c.Prob)
	}
	if c.Style != "" {
		if _, err := engine.ParseRootogramStyle(c.Style); err != nil {
			return fmt.Errorf("style: %w", err)
		}
	}
	if c.Bins < 0 {
		return fmt.Errorf("bins must not be negative, got %d", c.Bins)
	}
	if c.MaxTreedepth < 0 {
		return fmt.Errorf("max_treedepth must not be negative, got %d", c.MaxTreedepth)
	}

	validFormat := false
	for _, f := range Formats {
		if c.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid format: %s (valid: %v)", c.Format, Formats)
	}
	return nil
}

// ColorScheme resolves the configured scheme name.
func (c *Config) ColorScheme() (engine.ColorScheme, error) {
	return engine.SchemeByName(c.Scheme)
}
