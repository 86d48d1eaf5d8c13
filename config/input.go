package config

import "fmt"

// InputConfig locates demand data.
type InputConfig struct {
	// DemandDir holds one <site>.csv per site.
	DemandDir string `json:"demand_dir"`
	// InSubstationFolder reads <output.base_dir>/<site>/<demand_file> instead.
	InSubstationFolder bool   `json:"in_substation_folder"`
	DemandFile         string `json:"demand_file"`
	// GroupedFile is a single CSV holding every network group, filtered per
	// site on its group name column.
	GroupedFile string `json:"grouped_file"`
	// DeltaT is the sampling step in hours. Zero detects it from the data.
	DeltaT float64 `json:"delta_t"`
	// TargetYear moves every timestamp to that year when non-zero.
	TargetYear  int `json:"target_year"`
	MonthOffset int `json:"month_offset"`
	// FirmCapacitiesFile lists known capacities as Site,Firm_Capacity_MW.
	FirmCapacitiesFile string `json:"firm_capacities_file"`
}

// SetDefaults applies sane defaults.
func (c *InputConfig) SetDefaults() {
	if c.DemandDir == "" {
		c.DemandDir = "data"
	}
	if c.DemandFile == "" {
		c.DemandFile = "demand.csv"
	}
}

// Validate checks the input section.
func (c InputConfig) Validate() error {
	if c.DeltaT < 0 {
		return fmt.Errorf("delta_t must not be negative")
	}
	if c.TargetYear != 0 && (c.TargetYear < 1900 || c.TargetYear > 2200) {
		return fmt.Errorf("target_year %d out of range", c.TargetYear)
	}
	return nil
}

// OutputConfig controls where results go.
type OutputConfig struct {
	BaseDir string `json:"base_dir"`
	// Plots renders the E(C) curves next to the results.
	Plots *bool `json:"plots"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = "output"
	}
	if c.Plots == nil {
		on := true
		c.Plots = &on
	}
}

// Validate checks the output section.
func (c OutputConfig) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	return nil
}

// PlotsEnabled reports whether plots should be rendered.
func (c OutputConfig) PlotsEnabled() bool {
	return c.Plots == nil || *c.Plots
}

// SubstationConfig names one site of an analyze run.
type SubstationConfig struct {
	Name           string `json:"name"`
	DemandFile     string `json:"demand_file"`
	NominalVoltage string `json:"nominal_voltage"`
}
