package model

import "time"

// Segment is a maximal contiguous run of samples whose demand exceeds the
// firm capacity. Segments are recomputed on every run.
type Segment struct {
	StartIdx int
	// EndIdx is exclusive.
	EndIdx int
	Start  time.Time
	// End is the timestamp of the last sample in the run.
	End               time.Time
	Peak              float64
	PeakTime          time.Time
	FirmCapacity      float64
	RequiredReduction float64
	DurationPeriods   int
	DurationHours     float64
	Year              int
	Month             time.Month
	Day               int
	Weekday           time.Weekday
	IsWeekend         bool
	// EnergyMWh is RequiredReduction x DurationHours.
	EnergyMWh float64
	// Date is the calendar day the run starts on.
	Date time.Time
}
