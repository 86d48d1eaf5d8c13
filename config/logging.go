package config

import (
	"fmt"
	"path/filepath"
)

// JobLogConfig defines where finished batch jobs are recorded.
type JobLogConfig struct {
	// Backend selects the store: "" or "none" disables it, "jsonl" appends to
	// one file and "rotating" rotates it.
	Backend string `json:"backend"`
	// Path is the file location of the log store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults places the log under the output directory.
func (c *JobLogConfig) SetDefaults(outputDir string) {
	if c.Backend == "" || c.Backend == "none" {
		return
	}
	if c.Path == "" {
		c.Path = filepath.Join(outputDir, "batch_jobs.jsonl")
	}
	if c.Backend == "rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c JobLogConfig) Validate() error {
	switch c.Backend {
	case "", "none":
		return nil
	case "jsonl", "rotating":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
