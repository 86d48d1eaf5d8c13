// Package competition turns a site's overload windows into schema-shaped
// flexibility competitions, one per calendar month.
package competition

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/period"
	"github.com/kilianp07/firmflex/core/schedule"
	"github.com/kilianp07/firmflex/core/segment"
	"github.com/kilianp07/firmflex/core/window"
)

// DefaultSiteName is used when the series carries no site name.
const DefaultSiteName = "Substation"

// Options configures Build.
type Options struct {
	LicenceArea string
	Mode        ConfigMode
	// CustomFields lists the optional fields used in Custom mode.
	CustomFields []string
	// Fields, when non-nil, overrides Mode and CustomFields.
	Fields             *Selection
	PeriodMode         period.Mode
	ProcurementMinutes int
	FinancialYear      string
	Defaults           Defaults
}

func (o Options) selection() (Selection, error) {
	if o.Fields != nil {
		return *o.Fields, nil
	}
	mode := o.Mode
	if mode == "" {
		mode = Standard
	}
	return SelectFields(mode, o.CustomFields)
}

type bucket struct {
	year  int
	month time.Month
}

// Build creates one competition per calendar month in which the series
// overloads capacity. The energy carried by the windows is checked against
// the segment total and a drift above segment.EnergyTolerance is logged.
func Build(series *model.DemandSeries, capacity float64, opts Options, log logger.Logger) ([]model.Competition, error) {
	log = logger.OrNop(log)
	sel, err := opts.selection()
	if err != nil {
		return nil, err
	}
	var fy schedule.FinancialYearTable
	if opts.FinancialYear != "" {
		if fy, err = schedule.ForFinancialYear(opts.FinancialYear); err != nil {
			return nil, err
		}
	}
	site := series.Site
	if site == "" {
		site = DefaultSiteName
	}

	segs := segment.Find(series, capacity, log)
	total := segment.TotalEnergy(segs)
	log.Infof("total energy above capacity: %.2f MWh", total)

	windows, err := window.FromSegments(segs, series.DeltaT, opts.ProcurementMinutes)
	if err != nil {
		return nil, err
	}
	mode := opts.PeriodMode
	if mode == "" {
		mode = period.Monthly
	}
	periods := mode.Group(windows)
	if len(periods) == 0 {
		log.Infof("no service periods generated for %s", site)
		return nil, nil
	}

	keyOf := func(p model.ServicePeriod) (bucket, error) {
		t, err := time.Parse(time.DateOnly, p.Start)
		if err != nil {
			return bucket{}, fmt.Errorf("service period %q start: %w", p.Name, err)
		}
		return bucket{t.Year(), t.Month()}, nil
	}
	keys := make([]bucket, 0, len(periods))
	byKey := make(map[bucket][]model.ServicePeriod)
	for _, p := range periods {
		k, err := keyOf(p)
		if err != nil {
			return nil, err
		}
		if _, seen := byKey[k]; !seen {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], p)
	}

	comps := make([]model.Competition, 0, len(keys))
	for _, k := range keys {
		c, err := Template(TemplateInput{
			Site:           site,
			NominalVoltage: series.NominalVoltage,
			Reference:      SanitizeReference(site, opts.LicenceArea, k.year, int(k.month), 0),
			Periods:        byKey[k],
			Fields:         sel,
			Defaults:       opts.Defaults,
			FinancialYear:  fy,
		}, log)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}

	built := lo.SumBy(comps, func(c model.Competition) float64 { return c.TotalEnergy() })
	if math.Abs(total-built) > segment.EnergyTolerance {
		log.Warnf("energy mismatch: segments %.2f MWh, competitions %.2f MWh", total, built)
	} else {
		log.Debugf("competition energy matches segments: %.2f MWh", built)
	}
	return comps, nil
}

// Strip returns copies of the competitions without calculation-only
// fields, ready to be persisted.
func Strip(comps []model.Competition) []model.Competition {
	return lo.Map(comps, func(c model.Competition, _ int) model.Competition {
		out := c.Clone()
		for i := range out.ServicePeriods {
			for j := range out.ServicePeriods[i].ServiceWindows {
				w := &out.ServicePeriods[i].ServiceWindows[j]
				w.DurationHours = 0
				w.EnergyMWh = 0
				w.SegmentDate = time.Time{}
			}
		}
		return out
	})
}
