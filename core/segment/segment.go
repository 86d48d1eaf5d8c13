// Package segment extracts the overload runs of a demand series above a
// firm capacity.
package segment

import (
	"math"
	"time"

	"github.com/kilianp07/firmflex/core/energy"
	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
)

// EnergyTolerance is the accepted drift in MWh between independently summed
// energy totals.
const EnergyTolerance = 0.01

// Find scans the series once and returns every maximal run where demand is
// strictly above capacity. Each segment's energy uses the peak-based
// convention so that the sum over segments equals energy.PeakBased for the
// same capacity.
func Find(series *model.DemandSeries, capacity float64, log logger.Logger) []model.Segment {
	log = logger.OrNop(log)
	n := series.Len()
	dt := series.DeltaT
	var segments []model.Segment
	for i := 0; i < n; {
		if series.At(i).DemandMW <= capacity {
			i++
			continue
		}
		j := i
		peakIdx := i
		for j < n && series.At(j).DemandMW > capacity {
			if series.At(j).DemandMW > series.At(peakIdx).DemandMW {
				peakIdx = j
			}
			j++
		}
		segments = append(segments, build(series, i, j, peakIdx, capacity, dt))
		i = j
	}

	total := TotalEnergy(segments)
	expected := energy.PeakBased(series.Values(), capacity, dt)
	if math.Abs(total-expected) > EnergyTolerance {
		log.Warnf("segment energy %.2f MWh differs from peak-based energy %.2f MWh", total, expected)
	} else {
		log.Debugf("found %d overload segments, %.2f MWh above %.3f MW", len(segments), total, capacity)
	}
	return segments
}

func build(series *model.DemandSeries, start, end, peakIdx int, capacity, dt float64) model.Segment {
	first := series.At(start)
	last := series.At(end - 1)
	peak := series.At(peakIdx)
	periods := end - start
	hours := float64(periods) * dt
	reduction := peak.DemandMW - capacity
	t := first.Time
	wd := t.Weekday()
	return model.Segment{
		StartIdx:          start,
		EndIdx:            end,
		Start:             t,
		End:               last.Time,
		Peak:              peak.DemandMW,
		PeakTime:          peak.Time,
		FirmCapacity:      capacity,
		RequiredReduction: reduction,
		DurationPeriods:   periods,
		DurationHours:     hours,
		Year:              t.Year(),
		Month:             t.Month(),
		Day:               t.Day(),
		Weekday:           wd,
		IsWeekend:         wd == time.Saturday || wd == time.Sunday,
		EnergyMWh:         reduction * hours,
		Date:              time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()),
	}
}

// TotalEnergy sums the energy of the segments.
func TotalEnergy(segments []model.Segment) float64 {
	total := 0.0
	for _, s := range segments {
		total += s.EnergyMWh
	}
	return total
}
