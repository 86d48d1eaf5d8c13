package config

import (
	"fmt"

	"github.com/kilianp07/firmflex/core/competition"
	"github.com/kilianp07/firmflex/core/period"
	"github.com/kilianp07/firmflex/core/schedule"
)

// CompetitionsConfig controls competition generation.
type CompetitionsConfig struct {
	Enabled    bool   `json:"enabled"`
	SchemaPath string `json:"schema_path"`
	// ConfigMode is required_only, standard or custom.
	ConfigMode       string   `json:"config_mode"`
	CustomFields     []string `json:"custom_fields"`
	CustomFieldsFile string   `json:"custom_fields_file"`

	ProcurementWindowSizeMinutes int    `json:"procurement_window_size_minutes"`
	DailyServicePeriods          bool   `json:"daily_service_periods"`
	FinancialYear                string `json:"financial_year"`
	LicenceArea                  string `json:"licence_area"`

	Defaults competition.Defaults `json:"defaults"`
}

// SetDefaults applies sane defaults.
func (c *CompetitionsConfig) SetDefaults() {
	if c.ConfigMode == "" {
		c.ConfigMode = string(competition.Standard)
	}
	if c.ProcurementWindowSizeMinutes == 0 {
		c.ProcurementWindowSizeMinutes = 30
	}
	if c.LicenceArea == "" {
		c.LicenceArea = competition.DefaultLicenceArea
	}
}

// Validate checks the competitions section.
func (c CompetitionsConfig) Validate() error {
	mode, err := competition.ParseConfigMode(c.ConfigMode)
	if err != nil {
		return err
	}
	if mode == competition.Custom && c.CustomFieldsFile == "" {
		if _, err := competition.SelectFields(mode, c.CustomFields); err != nil {
			return err
		}
	}
	if c.ProcurementWindowSizeMinutes < 0 {
		return fmt.Errorf("procurement_window_size_minutes must not be negative")
	}
	if c.FinancialYear != "" {
		if _, err := schedule.ParseFinancialYear(c.FinancialYear); err != nil {
			return err
		}
	}
	return nil
}

// Options turns the section into builder options, reading the custom
// fields file when one is configured.
func (c CompetitionsConfig) Options() (competition.Options, error) {
	mode, err := competition.ParseConfigMode(c.ConfigMode)
	if err != nil {
		return competition.Options{}, err
	}
	opts := competition.Options{
		LicenceArea:        c.LicenceArea,
		Mode:               mode,
		CustomFields:       c.CustomFields,
		PeriodMode:         period.Monthly,
		ProcurementMinutes: c.ProcurementWindowSizeMinutes,
		FinancialYear:      c.FinancialYear,
		Defaults:           c.Defaults,
	}
	if c.DailyServicePeriods {
		opts.PeriodMode = period.Daily
	}
	if c.CustomFieldsFile != "" {
		sel, err := competition.LoadCustomFields(c.CustomFieldsFile)
		if err != nil {
			return competition.Options{}, fmt.Errorf("custom fields: %w", err)
		}
		opts.Fields = &sel
	}
	return opts, nil
}
