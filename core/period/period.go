// Package period groups service windows into calendar service periods.
package period

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/kilianp07/firmflex/core/model"
)

// Mode selects how windows are grouped.
type Mode string

const (
	Monthly Mode = "monthly"
	Daily   Mode = "daily"
)

// ParseMode validates a configured grouping mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Monthly, Daily:
		return Mode(s), nil
	case "":
		return Monthly, nil
	default:
		return "", &model.ConfigError{Field: "period_mode", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

// Group dispatches to GroupMonthly or GroupDaily.
func (m Mode) Group(windows []model.ServiceWindow) []model.ServicePeriod {
	switch m {
	case Daily:
		return GroupDaily(windows)
	default:
		return GroupMonthly(windows)
	}
}

type monthKey struct {
	year  int
	month time.Month
}

// GroupMonthly puts every window into the period of its segment's calendar
// month. Periods keep the order in which months are first seen and windows
// without a segment date are dropped.
func GroupMonthly(windows []model.ServiceWindow) []model.ServicePeriod {
	dated := lo.Filter(windows, func(w model.ServiceWindow, _ int) bool { return !w.SegmentDate.IsZero() })
	keyOf := func(w model.ServiceWindow) monthKey {
		return monthKey{w.SegmentDate.Year(), w.SegmentDate.Month()}
	}
	keys := lo.Uniq(lo.Map(dated, func(w model.ServiceWindow, _ int) monthKey { return keyOf(w) }))

	periods := make([]model.ServicePeriod, 0, len(keys))
	for _, k := range keys {
		members := lo.Filter(dated, func(w model.ServiceWindow, _ int) bool { return keyOf(w) == k })
		periods = append(periods, model.ServicePeriod{
			Name:           k.month.String(),
			Start:          fmt.Sprintf("%d-%02d-01", k.year, int(k.month)),
			End:            fmt.Sprintf("%d-%02d-%02d", k.year, int(k.month), model.DaysIn(k.year, k.month)),
			ServiceWindows: detach(members),
		})
	}
	return periods
}

// GroupDaily creates one period per segment date. The end date is
// exclusive.
func GroupDaily(windows []model.ServiceWindow) []model.ServicePeriod {
	dated := lo.Filter(windows, func(w model.ServiceWindow, _ int) bool { return !w.SegmentDate.IsZero() })
	dayOf := func(w model.ServiceWindow) string { return w.SegmentDate.Format(time.DateOnly) }
	days := lo.Uniq(lo.Map(dated, func(w model.ServiceWindow, _ int) string { return dayOf(w) }))

	periods := make([]model.ServicePeriod, 0, len(days))
	for _, day := range days {
		members := lo.Filter(dated, func(w model.ServiceWindow, _ int) bool { return dayOf(w) == day })
		d := members[0].SegmentDate
		periods = append(periods, model.ServicePeriod{
			Name:           fmt.Sprintf("%s %d (%s)", d.Month(), d.Day(), d.Weekday()),
			Start:          day,
			End:            d.AddDate(0, 0, 1).Format(time.DateOnly),
			ServiceWindows: detach(members),
		})
	}
	return periods
}

func detach(ws []model.ServiceWindow) []model.ServiceWindow {
	return lo.Map(ws, func(w model.ServiceWindow, _ int) model.ServiceWindow {
		c := w.Clone()
		c.SegmentDate = time.Time{}
		return c
	})
}
