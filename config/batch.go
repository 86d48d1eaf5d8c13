package config

import (
	"fmt"

	"github.com/kilianp07/firmflex/core/batch"
)

// DefaultWorkers bounds the batch pool when nothing is configured.
const DefaultWorkers = batch.DefaultWorkers

// BatchConfig controls multi-site runs.
type BatchConfig struct {
	Workers      int  `json:"workers"`
	SkipExisting bool `json:"skip_existing"`
	// Filter restricts the run to these sites when non-empty.
	Filter []string `json:"filter"`
}

// SetDefaults applies sane defaults.
func (c *BatchConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
}

// Validate checks the batch section.
func (c BatchConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
