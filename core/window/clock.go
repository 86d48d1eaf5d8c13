package window

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// RoundToHalfHour rounds minutes to the nearest multiple of 30.
func RoundToHalfHour(minutes int) int {
	return int(math.Round(float64(minutes)/30.0)) * 30
}

// CeilToHalfHour rounds minutes up to the next multiple of 30.
func CeilToHalfHour(minutes float64) int {
	return int(math.Ceil(minutes/30.0-1e-9)) * 30
}

// FormatClock renders minutes after midnight as HH:MM, wrapping past 24h.
func FormatClock(minutes int) string {
	m := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock parses HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return hour*60 + minute, nil
}

// Span returns the start and end of a HH:MM window in minutes. An end at or
// before the start is taken to be on the following day.
func Span(start, end string) (int, int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		e += minutesPerDay
	}
	return s, e, nil
}

// ShiftDay moves an English weekday name forward by days. Names that are not
// weekdays are returned unchanged.
func ShiftDay(day string, days int) string {
	if days == 0 {
		return day
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == day {
			return time.Weekday((int(d) + days%7 + 7) % 7).String()
		}
	}
	return day
}
