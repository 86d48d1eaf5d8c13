package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kilianp07/firmflex/core/model"
)

// MonthDates is one row of a financial-year calendar.
type MonthDates struct {
	Month        string
	ServiceMonth time.Time
	Dates        Dates
}

// FinancialYearTable is the April to March calendar of a financial year.
type FinancialYearTable []MonthDates

// ParseFinancialYear parses "YYYY/YY" and returns its start year.
func ParseFinancialYear(fy string) (int, error) {
	bad := func(reason string) error {
		return &model.ConfigError{Field: "financial_year", Reason: fmt.Sprintf("%q: %s", fy, reason)}
	}
	if len(fy) != 7 || fy[4] != '/' {
		return 0, bad("must be in format YYYY/YY")
	}
	start, err := strconv.Atoi(fy[:4])
	if err != nil || start < 1000 {
		return 0, bad("invalid start year")
	}
	suffix, err := strconv.Atoi(fy[5:])
	if err != nil {
		return 0, bad("invalid end year")
	}
	if suffix != (start+1)%100 {
		return 0, bad("end year must follow start year")
	}
	return start, nil
}

// ForFinancialYear returns the competition dates for each service month
// from April of the start year to March of the next. Every row is
// validated.
func ForFinancialYear(fy string) (FinancialYearTable, error) {
	start, err := ParseFinancialYear(fy)
	if err != nil {
		return nil, err
	}
	table := make(FinancialYearTable, 0, 12)
	for i := 0; i < 12; i++ {
		service := time.Date(start, time.April+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		d := Generate(service)
		if err := Validate(d); err != nil {
			return nil, fmt.Errorf("financial year %s, %s: %w", fy, service.Format("January 2006"), err)
		}
		table = append(table, MonthDates{
			Month:        service.Month().String(),
			ServiceMonth: service,
			Dates:        d,
		})
	}
	return table, nil
}

// Lookup returns the row for the named month.
func (t FinancialYearTable) Lookup(month time.Month) (MonthDates, bool) {
	for _, row := range t {
		if row.ServiceMonth.Month() == month {
			return row, true
		}
	}
	return MonthDates{}, false
}
