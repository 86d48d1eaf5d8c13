package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/firmflex/core/metrics"
)

// EnvPrefix marks environment overrides, e.g. FF_BATCH__WORKERS=4.
const EnvPrefix = "FF_"

type Config struct {
	LogLevel     string             `json:"log_level"`
	Input        InputConfig        `json:"input"`
	Output       OutputConfig       `json:"output"`
	FirmCapacity FirmCapacityConfig `json:"firm_capacity"`
	Competitions CompetitionsConfig `json:"competitions"`
	Batch        BatchConfig        `json:"batch"`
	Metrics      metrics.Config     `json:"metrics"`
	JobLog       JobLogConfig       `json:"job_log"`
	Sentry       SentryConfig       `json:"sentry"`
	Substations  []SubstationConfig `json:"substations"`
}

// Load reads a YAML or JSON file, applies FF_ environment overrides, then
// fills defaults and validates every section. An empty path loads defaults
// and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Input.SetDefaults()
	c.Output.SetDefaults()
	c.FirmCapacity.SetDefaults()
	c.Competitions.SetDefaults()
	c.Batch.SetDefaults()
	c.JobLog.SetDefaults(c.Output.BaseDir)
}

// Validate checks every section.
func (c Config) Validate() error {
	validators := []struct {
		section string
		fn      func() error
	}{
		{"input", c.Input.Validate},
		{"output", c.Output.Validate},
		{"firm_capacity", c.FirmCapacity.Validate},
		{"competitions", c.Competitions.Validate},
		{"batch", c.Batch.Validate},
		{"job_log", c.JobLog.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s: %w", v.section, err)
		}
	}
	for i, s := range c.Substations {
		if s.Name == "" {
			return fmt.Errorf("substations[%d]: name is required", i)
		}
	}
	return nil
}
