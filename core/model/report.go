package model

// SiteStats is the capacity result of one site, persisted as
// firm_capacity_results.csv and metadata.json.
type SiteStats struct {
	Substation             string  `json:"substation"`
	CPlainMW               float64 `json:"C_plain_MW"`
	CPeakMW                float64 `json:"C_peak_MW"`
	MeanDemandMW           float64 `json:"mean_demand_MW"`
	MaxDemandMW            float64 `json:"max_demand_MW"`
	TotalEnergyMWh         float64 `json:"total_energy_MWh"`
	EnergyAboveCapacityMWh float64 `json:"energy_above_capacity_MWh"`
}

// SiteReport is what a finished per-site analysis hands back.
type SiteReport struct {
	Stats            SiteStats
	Competitions     int
	Windows          int
	ValidationErrors int
	OutputDir        string
}
