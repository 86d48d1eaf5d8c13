// Package window turns overload segments into recurring service windows and
// splits them into procurement-sized sub-windows.
package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/segment"
)

const (
	// MinimumCapacityRequired keeps a window from asking for zero MW.
	MinimumCapacityRequired = 0.1
	// MinimumAggregateAssetSize is the fixed asset-size floor in MW.
	MinimumAggregateAssetSize = "0.100"
)

// FromSegment builds a window keyed to the weekday of the segment's start
// date, so that the window carries exactly the segment's energy.
func FromSegment(seg model.Segment) model.ServiceWindow {
	startMin := seg.Start.Hour()*60 + seg.Start.Minute()
	durMin := CeilToHalfHour(seg.DurationHours * 60)
	start := FormatClock(startMin)
	end := FormatClock(startMin + durMin)
	day := seg.Weekday.String()
	return model.ServiceWindow{
		Name:                      fmt.Sprintf("%s %s-%s", day, start, end),
		Start:                     start,
		End:                       end,
		ServiceDays:               []string{day},
		MinimumAggregateAssetSize: MinimumAggregateAssetSize,
		CapacityRequired:          fmt.Sprintf("%.3f", math.Max(seg.RequiredReduction, MinimumCapacityRequired)),
		DurationHours:             float64(durMin) / 60,
		EnergyMWh:                 seg.EnergyMWh,
		SegmentDate:               seg.Date,
	}
}

// Split divides a window into procurement-sized sub-windows. The window's
// duration is rounded up to 30 minutes and cut into N = max(1, duration/size)
// pieces; the last piece absorbs any leftover minutes. Energy is shared in
// proportion to duration and the rounding remainder lands on the last
// piece, so the totals match the parent exactly. Pieces starting past
// midnight move to the following service day.
//
// The proportional share is an approximation: the demand profile inside the
// window is not known at this point.
func Split(w model.ServiceWindow, assessmentMinutes, procurementMinutes int) ([]model.ServiceWindow, error) {
	size := RoundToHalfHour(procurementMinutes)
	if size <= 0 {
		size = 30
	}
	start, err := ParseClock(w.Start)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", w.Name, err)
	}
	duration, err := Minutes(w)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", w.Name, err)
	}
	end := start + duration
	n := duration / size
	if n < 1 {
		n = 1
	}
	if n == 1 || assessmentMinutes == size {
		return []model.ServiceWindow{w.Clone()}, nil
	}

	prefix, _, _ := strings.Cut(w.Name, " ")
	parentEnergy := w.EnergyMWh
	perHour := parentEnergy / (float64(duration) / 60)
	out := make([]model.ServiceWindow, 0, n)
	allocated := 0.0
	for i := 0; i < n; i++ {
		ws := start + i*size
		we := ws + size
		if i == n-1 {
			we = end
		}
		hours := float64(we-ws) / 60
		days := ws / minutesPerDay
		sub := w.Clone()
		for j, d := range sub.ServiceDays {
			sub.ServiceDays[j] = ShiftDay(d, days)
		}
		sub.Start = FormatClock(ws)
		sub.End = FormatClock(we)
		sub.Name = fmt.Sprintf("%s %s-%s", ShiftDay(prefix, days), sub.Start, sub.End)
		sub.DurationHours = hours
		sub.EnergyMWh = perHour * hours
		allocated += sub.EnergyMWh
		out = append(out, sub)
	}
	out[n-1].EnergyMWh += parentEnergy - allocated
	return out, nil
}

// Minutes returns the window length in minutes, rounded up to 30. The
// recorded duration takes precedence over the HH:MM pair, which cannot
// express whole days.
func Minutes(w model.ServiceWindow) (int, error) {
	if w.DurationHours > 0 {
		return CeilToHalfHour(w.DurationHours * 60), nil
	}
	start, end, err := Span(w.Start, w.End)
	if err != nil {
		return 0, err
	}
	return CeilToHalfHour(float64(end - start)), nil
}

// Generate finds the overload segments of series above capacity and returns
// their windows.
func Generate(series *model.DemandSeries, capacity float64, procurementMinutes int, log logger.Logger) ([]model.ServiceWindow, error) {
	log = logger.OrNop(log)
	segs := segment.Find(series, capacity, log)
	if len(segs) == 0 {
		log.Infof("no overload segments at firm capacity %.3f MW", capacity)
		return nil, nil
	}
	return FromSegments(segs, series.DeltaT, procurementMinutes)
}

// FromSegments returns one window per segment. Windows are split when the
// procurement size is finer than the sampling step deltaT (hours).
func FromSegments(segs []model.Segment, deltaT float64, procurementMinutes int) ([]model.ServiceWindow, error) {
	windows := make([]model.ServiceWindow, 0, len(segs))
	for _, s := range segs {
		windows = append(windows, FromSegment(s))
	}
	native := int(math.Round(deltaT * 60))
	if procurementMinutes <= 0 || procurementMinutes >= native {
		return windows, nil
	}
	var split []model.ServiceWindow
	for _, w := range windows {
		parts, err := Split(w, native, procurementMinutes)
		if err != nil {
			return nil, err
		}
		split = append(split, parts...)
	}
	return split, nil
}
