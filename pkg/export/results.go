package export

import (
	"io"

	"github.com/kilianp07/firmflex/core/competition"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/schema"
)

var statsHeader = []string{
	"substation",
	"C_plain_MW",
	"C_peak_MW",
	"mean_demand_MW",
	"max_demand_MW",
	"total_energy_MWh",
	"energy_above_capacity_MWh",
}

func statsRecord(s model.SiteStats) []string {
	return []string{
		s.Substation,
		ftoa(s.CPlainMW),
		ftoa(s.CPeakMW),
		ftoa(s.MeanDemandMW),
		ftoa(s.MaxDemandMW),
		ftoa(s.TotalEnergyMWh),
		ftoa(s.EnergyAboveCapacityMWh),
	}
}

// WriteStatsCSV writes one row per site. It backs both
// firm_capacity_results.csv and the cross-site summary.csv.
func WriteStatsCSV(w io.Writer, stats []model.SiteStats) error {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = statsRecord(s)
	}
	return writeCSV(w, statsHeader, rows)
}

// WriteCompetitions writes competitions in their persisted form.
func WriteCompetitions(w io.Writer, comps []model.Competition) error {
	return WriteJSON(w, competition.Strip(comps))
}

// WriteValidationErrors writes schema validation failures.
func WriteValidationErrors(w io.Writer, errs []schema.ValidationError) error {
	if errs == nil {
		errs = []schema.ValidationError{}
	}
	return WriteJSON(w, errs)
}
