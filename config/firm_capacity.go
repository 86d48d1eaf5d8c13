package config

import (
	"fmt"

	"github.com/kilianp07/firmflex/core/energy"
)

// FirmCapacityConfig parameterises the capacity inversion.
type FirmCapacityConfig struct {
	// TargetMWh is the energy budget left above the firm capacity.
	TargetMWh float64 `json:"target_mwh"`
	// Tolerance is a fraction of peak demand used as the bisection width.
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
}

// SetDefaults applies sane defaults.
func (c *FirmCapacityConfig) SetDefaults() {
	if c.Tolerance == 0 {
		c.Tolerance = 0.001
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = energy.DefaultMaxIterations
	}
}

// Validate checks the firm_capacity section.
func (c FirmCapacityConfig) Validate() error {
	if c.TargetMWh < 0 {
		return fmt.Errorf("target_mwh must not be negative")
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in (0, 1)")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive")
	}
	return nil
}
