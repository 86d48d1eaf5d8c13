package export

import (
	"io"
	"math"
	"slices"

	"github.com/kilianp07/firmflex/core/batch"
	"github.com/kilianp07/firmflex/core/model"
)

var batchHeader = slices.Concat(
	[]string{"Site", "Status", "Firm_Capacity_MW", "Processing_Time_s"},
	statsHeader[1:],
	[]string{"Error", "Message"},
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// WriteBatchSummaryCSV writes batch_processing_summary.csv, one row per
// site in site order. Result columns are filled for successful sites only.
func WriteBatchSummaryCSV(w io.Writer, sum batch.Summary) error {
	rows := make([][]string, 0, len(sum.Jobs))
	for _, j := range sum.Jobs {
		c, _ := j.Capacity()
		rec := []string{j.Site, string(j.Status), ftoa(c), ftoa(round2(j.Duration.Seconds()))}
		if j.Status == batch.StatusSuccess && j.Report != nil {
			rec = append(rec, statsRecord(j.Report.Stats)[1:]...)
		} else {
			rec = append(rec, make([]string, len(statsHeader)-1)...)
		}
		rec = append(rec, j.ErrMessage(), j.Message)
		rows = append(rows, rec)
	}
	return writeCSV(w, batchHeader, rows)
}

type jobJSON struct {
	Site           string           `json:"site"`
	Status         string           `json:"status"`
	FirmCapacity   *float64         `json:"firm_capacity,omitempty"`
	ProcessingTime float64          `json:"processing_time"`
	Results        *model.SiteStats `json:"results,omitempty"`
	Competitions   int              `json:"competitions,omitempty"`
	Error          string           `json:"error,omitempty"`
	Message        string           `json:"message,omitempty"`
}

type summaryJSON struct {
	TotalSites     int     `json:"total_sites"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	ProcessingTime float64 `json:"processing_time"`
	AvgTimePerSite float64 `json:"avg_time_per_site"`
	CapacityMinMW  float64 `json:"capacity_min_mw,omitempty"`
	CapacityMaxMW  float64 `json:"capacity_max_mw,omitempty"`
	CapacityMeanMW float64 `json:"capacity_mean_mw,omitempty"`
}

type batchJSON struct {
	RunID   string             `json:"run_id"`
	Results map[string]jobJSON `json:"results"`
	Summary summaryJSON        `json:"summary"`
}

// WriteBatchSummaryJSON writes batch_processing_summary.json with the full
// per-site detail.
func WriteBatchSummaryJSON(w io.Writer, sum batch.Summary) error {
	out := batchJSON{
		RunID:   sum.RunID,
		Results: make(map[string]jobJSON, len(sum.Jobs)),
		Summary: summaryJSON{
			TotalSites:     sum.Total,
			Successful:     sum.Succeeded,
			Failed:         sum.Failed,
			Skipped:        sum.Skipped,
			ProcessingTime: sum.Elapsed.Seconds(),
			AvgTimePerSite: sum.AvgPerSite.Seconds(),
			CapacityMinMW:  sum.Capacity.Min,
			CapacityMaxMW:  sum.Capacity.Max,
			CapacityMeanMW: sum.Capacity.Mean,
		},
	}
	for _, j := range sum.Jobs {
		v := jobJSON{
			Site:           j.Site,
			Status:         string(j.Status),
			FirmCapacity:   j.FirmCapacity,
			ProcessingTime: j.Duration.Seconds(),
			Error:          j.ErrMessage(),
			Message:        j.Message,
		}
		if j.Report != nil {
			stats := j.Report.Stats
			v.Results = &stats
			v.Competitions = j.Report.Competitions
		}
		out.Results[j.Site] = v
	}
	return WriteJSON(w, out)
}
