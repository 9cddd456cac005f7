package integrators

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStep is the fixed symplectic step in length units, used
	// whenever any of h, k1, k2 is nonzero.
	DefaultStep = 0.005

	// DefaultSamples is the number of longitudinal field samples for
	// the RK tracker.
	DefaultSamples = 200
)

// Config holds the caller-visible stepping parameters. Accuracy is
// governed purely by these values; there are no hidden constants.
type Config struct {
	Step    float64 `yaml:"step"`
	Samples int     `yaml:"samples"`
}

func DefaultConfig() Config {
	return Config{Step: DefaultStep, Samples: DefaultSamples}
}

func (c Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %g", c.Step)
	}
	if c.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", c.Samples)
	}
	return nil
}

// ParseConfig overlays yaml data onto the defaults and validates the
// result.
func ParseConfig(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
