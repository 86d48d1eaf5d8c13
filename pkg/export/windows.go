package export

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/window"
)

// EstimatedUtilisation scales capacity x duration when a window carries no
// energy figure.
const EstimatedUtilisation = 0.8

var windowHeader = []string{
	"Competition",
	"Month",
	"Window",
	"Capacity (MW)",
	"Energy (MWh)",
	"Window Duration (h)",
	"Days",
	"Hours",
	"Start",
	"End",
	"Service Days",
	"Energy per Hour (MWh/h)",
	"Energy / Capacity × Duration Ratio",
}

// WindowEnergy is one service_window_mwh.csv row.
type WindowEnergy struct {
	Competition   string
	Month         string
	Window        string
	CapacityMW    float64
	EnergyMWh     float64
	DurationHours float64
	Days          int
	Start         string
	End           string
	ServiceDays   []string
}

// Hours is the window duration times the number of service days.
func (r WindowEnergy) Hours() float64 { return r.DurationHours * float64(r.Days) }

// MonthOf returns the English month a period name starts with, or "Unknown".
func MonthOf(periodName string) string {
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(periodName, m.String()) {
			return m.String()
		}
	}
	return "Unknown"
}

// WindowEnergies flattens competitions into per-window rows sorted by
// competition, month and window name.
func WindowEnergies(comps []model.Competition) ([]WindowEnergy, error) {
	var rows []WindowEnergy
	for _, c := range comps {
		for _, p := range c.ServicePeriods {
			month := MonthOf(p.Name)
			for _, w := range p.ServiceWindows {
				capacity, err := strconv.ParseFloat(w.CapacityRequired, 64)
				if err != nil {
					return nil, err
				}
				minutes, err := window.Minutes(w)
				if err != nil {
					return nil, err
				}
				duration := float64(minutes) / 60
				energy := w.EnergyMWh
				if energy == 0 {
					energy = capacity * duration * EstimatedUtilisation
				}
				rows = append(rows, WindowEnergy{
					Competition:   c.Name,
					Month:         month,
					Window:        w.Name,
					CapacityMW:    capacity,
					EnergyMWh:     energy,
					DurationHours: duration,
					Days:          len(w.ServiceDays),
					Start:         w.Start,
					End:           w.End,
					ServiceDays:   w.ServiceDays,
				})
			}
		}
	}
	slices.SortStableFunc(rows, func(a, b WindowEnergy) int {
		return cmp.Or(
			cmp.Compare(a.Competition, b.Competition),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.Window, b.Window),
		)
	})
	return rows, nil
}

func ratio(num, den float64) string {
	if den == 0 {
		return ""
	}
	return ftoa(num / den)
}

// WriteWindowEnergies writes service_window_mwh.csv.
func WriteWindowEnergies(w io.Writer, comps []model.Competition) error {
	entries, err := WindowEnergies(comps)
	if err != nil {
		return err
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		hours := e.Hours()
		rows[i] = []string{
			e.Competition,
			e.Month,
			e.Window,
			ftoa(e.CapacityMW),
			ftoa(e.EnergyMWh),
			ftoa(e.DurationHours),
			strconv.Itoa(e.Days),
			ftoa(hours),
			e.Start,
			e.End,
			strings.Join(e.ServiceDays, ","),
			ratio(e.EnergyMWh, hours),
			ratio(e.EnergyMWh, e.CapacityMW*hours),
		}
	}
	return writeCSV(w, windowHeader, rows)
}
