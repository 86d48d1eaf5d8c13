// Package schedule derives the qualification and bidding calendar of a
// flexibility competition from its service month.
package schedule

import (
	"fmt"
	"time"

	"github.com/kilianp07/firmflex/core/model"
)

// Layout is the timestamp format competitions are published with.
const Layout = "2006-01-02T15:04:05Z"

// QualificationDays is the fixed length of the qualification window.
const QualificationDays = 14

// Dates are the four milestones of a competition. All values are UTC wall
// clock times.
type Dates struct {
	QualificationOpen   time.Time
	QualificationClosed time.Time
	BiddingOpen         time.Time
	BiddingClosed       time.Time
}

// Formatted holds Dates rendered with Layout.
type Formatted struct {
	QualificationOpen   string `json:"qualification_open"`
	QualificationClosed string `json:"qualification_closed"`
	BiddingOpen         string `json:"bidding_open"`
	BiddingClosed       string `json:"bidding_closed"`
}

// FirstWeekday returns the first Monday to Friday of the month.
func FirstWeekday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Generate returns the dates for a competition whose service starts in the
// month of serviceDate. Qualification opens at 12:00 on the first weekday
// of the preceding month and closes 14 days later at 08:00; bidding runs
// from 08:30 to 17:00 on the closing day.
func Generate(serviceDate time.Time) Dates {
	prev := time.Date(serviceDate.Year(), serviceDate.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	open := FirstWeekday(prev.Year(), prev.Month())
	closeDay := open.AddDate(0, 0, QualificationDays)
	return Dates{
		QualificationOpen:   at(open, 12, 0),
		QualificationClosed: at(closeDay, 8, 0),
		BiddingOpen:         at(closeDay, 8, 30),
		BiddingClosed:       at(closeDay, 17, 0),
	}
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clockIs(t time.Time, hour, minute int) bool {
	return t.Hour() == hour && t.Minute() == minute && t.Second() == 0 && t.Nanosecond() == 0
}

// Validate checks every scheduling rule and reports the first one broken.
func Validate(d Dates) error {
	fail := func(rule string) error {
		return &model.DateRuleViolation{Rule: rule, Dates: d.String()}
	}
	span := dateOf(d.QualificationClosed).Sub(dateOf(d.QualificationOpen))
	if span != QualificationDays*24*time.Hour {
		return fail("qualification period must be 14 days")
	}
	if !clockIs(d.QualificationOpen, 12, 0) {
		return fail("qualification opens at 12:00")
	}
	if !clockIs(d.QualificationClosed, 8, 0) {
		return fail("qualification closes at 08:00")
	}
	if !clockIs(d.BiddingOpen, 8, 30) {
		return fail("bidding opens at 08:30")
	}
	if !clockIs(d.BiddingClosed, 17, 0) {
		return fail("bidding closes at 17:00")
	}
	if !dateOf(d.BiddingOpen).Equal(dateOf(d.QualificationClosed)) || !dateOf(d.BiddingClosed).Equal(dateOf(d.QualificationClosed)) {
		return fail("bidding on qualification close date")
	}
	return nil
}

// Format renders the dates for publication.
func (d Dates) Format() Formatted {
	return Formatted{
		QualificationOpen:   d.QualificationOpen.Format(Layout),
		QualificationClosed: d.QualificationClosed.Format(Layout),
		BiddingOpen:         d.BiddingOpen.Format(Layout),
		BiddingClosed:       d.BiddingClosed.Format(Layout),
	}
}

func (d Dates) String() string {
	f := d.Format()
	return fmt.Sprintf("qualification %s..%s bidding %s..%s",
		f.QualificationOpen, f.QualificationClosed, f.BiddingOpen, f.BiddingClosed)
}
