package model

import (
	"fmt"
	"sort"
	"time"
)

// DefaultDeltaT is the sampling step assumed when it cannot be detected.
const DefaultDeltaT = 0.5

// Sample is a single demand reading.
type Sample struct {
	Time     time.Time
	DemandMW float64
}

// DemandSeries is an ordered, uniformly spaced demand time series for one
// site. It is immutable once built; accessors hand out copies.
type DemandSeries struct {
	Site           string
	NominalVoltage string
	// DeltaT is the sample spacing in hours.
	DeltaT  float64
	samples []Sample
}

// NewDemandSeries sorts samples by time and checks that timestamps are
// strictly increasing. A non-positive deltaT is detected from the data.
func NewDemandSeries(site string, samples []Sample, deltaT float64) (*DemandSeries, error) {
	if len(samples) == 0 {
		return nil, &InputError{Site: site, Reason: "empty demand series"}
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })
	for i := 1; i < len(cp); i++ {
		if !cp[i].Time.After(cp[i-1].Time) {
			return nil, &InputError{Site: site, Reason: fmt.Sprintf("duplicate timestamp %s", cp[i].Time.Format(time.DateTime))}
		}
	}
	if deltaT <= 0 {
		deltaT = DetectDeltaT(cp)
	}
	return &DemandSeries{Site: site, DeltaT: deltaT, samples: cp}, nil
}

// DetectDeltaT returns the spacing in hours between the first two samples,
// or DefaultDeltaT when there are fewer than two.
func DetectDeltaT(samples []Sample) float64 {
	if len(samples) < 2 {
		return DefaultDeltaT
	}
	dt := samples[1].Time.Sub(samples[0].Time).Hours()
	if dt <= 0 {
		return DefaultDeltaT
	}
	return dt
}

// Len returns the number of samples.
func (s *DemandSeries) Len() int { return len(s.samples) }

// At returns the i-th sample.
func (s *DemandSeries) At(i int) Sample { return s.samples[i] }

// Samples returns a copy of the samples.
func (s *DemandSeries) Samples() []Sample {
	cp := make([]Sample, len(s.samples))
	copy(cp, s.samples)
	return cp
}

// Values returns the demand values in time order.
func (s *DemandSeries) Values() []float64 {
	out := make([]float64, len(s.samples))
	for i, smp := range s.samples {
		out[i] = smp.DemandMW
	}
	return out
}

// WithYear returns a copy of the series with every timestamp moved to the
// given year, keeping month, day and time of day. 29 February becomes
// 28 February in non-leap years.
func (s *DemandSeries) WithYear(year int) (*DemandSeries, error) {
	return s.remap(func(t time.Time) time.Time {
		day := t.Day()
		if t.Month() == time.February && day == 29 && !isLeap(year) {
			day = 28
		}
		return time.Date(year, t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	})
}

// WithMonthOffset returns a copy of the series shifted by n calendar months.
// Days past the end of the target month are clamped to its last day.
func (s *DemandSeries) WithMonthOffset(n int) (*DemandSeries, error) {
	if n == 0 {
		return s, nil
	}
	return s.remap(func(t time.Time) time.Time {
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
		day := t.Day()
		if last := DaysIn(first.Year(), first.Month()); day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	})
}

func (s *DemandSeries) remap(fn func(time.Time) time.Time) (*DemandSeries, error) {
	moved := make([]Sample, len(s.samples))
	for i, smp := range s.samples {
		moved[i] = Sample{Time: fn(smp.Time), DemandMW: smp.DemandMW}
	}
	out, err := NewDemandSeries(s.Site, moved, s.DeltaT)
	if err != nil {
		return nil, err
	}
	out.NominalVoltage = s.NominalVoltage
	return out, nil
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
