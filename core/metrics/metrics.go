package metrics

import "time"

// SiteResult describes one finished site job.
type SiteResult struct {
	RunID  string
	Site   string
	Status string
	// FirmCapacityMW is zero unless Status is success.
	FirmCapacityMW float64
	PlainCapacity  float64
	EnergyAboveMWh float64
	Competitions   int
	Windows        int
	Duration       time.Duration
	Time           time.Time
}

// BatchSummary is reported once per batch run.
type BatchSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
	Time      time.Time
}

// Sink records site results.
type Sink interface {
	RecordSiteResult(res SiteResult) error
}

// SummaryRecorder is implemented by sinks able to record batch summaries.
type SummaryRecorder interface {
	RecordBatchSummary(sum BatchSummary) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordSiteResult(SiteResult) error     { return nil }
func (NopSink) RecordBatchSummary(BatchSummary) error { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSiteResult forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSiteResult(res SiteResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordSiteResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordBatchSummary forwards the summary to sinks that support it.
func (m *MultiSink) RecordBatchSummary(sum BatchSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SummaryRecorder); ok {
			if err := rec.RecordBatchSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}
