package batch

import (
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/firmflex/core/metrics"
)

// CapacityStats describes the firm capacities of successful jobs.
type CapacityStats struct {
	N    int
	Min  float64
	Max  float64
	Mean float64
}

// Summary is the outcome of a batch run. Jobs are sorted by site.
type Summary struct {
	RunID      string
	Total      int
	Succeeded  int
	Failed     int
	Skipped    int
	Elapsed    time.Duration
	AvgPerSite time.Duration
	Capacity   CapacityStats
	Jobs       []Job
}

func summarize(runID string, jobs []Job, elapsed time.Duration) Summary {
	sortJobs(jobs)
	s := Summary{RunID: runID, Total: len(jobs), Elapsed: elapsed, Jobs: jobs}
	for _, j := range jobs {
		switch j.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusError:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.AvgPerSite = elapsed / time.Duration(s.Total)
	}
	caps := lo.FilterMap(jobs, func(j Job, _ int) (float64, bool) {
		if j.Status != StatusSuccess {
			return 0, false
		}
		return j.Capacity()
	})
	if len(caps) > 0 {
		s.Capacity = CapacityStats{
			N:    len(caps),
			Min:  floats.Min(caps),
			Max:  floats.Max(caps),
			Mean: stat.Mean(caps, nil),
		}
	}
	return s
}

// Job returns the job for site.
func (s Summary) Job(site string) (Job, bool) {
	return lo.Find(s.Jobs, func(j Job) bool { return j.Site == site })
}

// Metrics converts the summary for a metrics sink.
func (s Summary) Metrics() metrics.BatchSummary {
	return metrics.BatchSummary{
		RunID:     s.RunID,
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		Elapsed:   s.Elapsed,
		Time:      time.Now(),
	}
}
