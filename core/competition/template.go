package competition

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/schedule"
)

// Fixed taxonomy of the generated competitions.
const (
	NeedType      = "Pre Fault"
	Type          = "Utilisation"
	NeedDirection = "Deficit"
	PowerType     = "Active Power"
	AreaBuffer    = "0.100"
)

// Defaults are the values written for selected optional fields.
type Defaults struct {
	Contact                  string            `json:"contact"`
	ArchiveAfterDays         int               `json:"archive_after_days"`
	ProductType              string            `json:"product_type"`
	MinimumConnectionVoltage string            `json:"minimum_connection_voltage"`
	MinimumBudget            string            `json:"minimum_budget"`
	MaximumBudget            string            `json:"maximum_budget"`
	AvailabilityGuidePrice   string            `json:"availability_guide_price"`
	UtilisationGuidePrice    string            `json:"utilisation_guide_price"`
	ServiceFee               string            `json:"service_fee"`
	PricingType              string            `json:"pricing_type"`
	Window                   map[string]string `json:"window"`
}

// DefaultValues returns the stock defaults.
func DefaultValues() Defaults {
	return Defaults{
		Contact:                  "flexibility@example.com",
		ArchiveAfterDays:         7,
		ProductType:              "Scheduled Utilisation",
		MinimumConnectionVoltage: MinConnectionVoltage,
		MinimumBudget:            "5000.00",
		MaximumBudget:            "10000.00",
		AvailabilityGuidePrice:   "10.00",
		UtilisationGuidePrice:    "240",
		ServiceFee:               "9.45",
		PricingType:              "auction",
	}
}

// fillEmpty copies stock values into unset fields.
func (d Defaults) fillEmpty() Defaults {
	def := DefaultValues()
	d.Contact = lo.Ternary(d.Contact == "", def.Contact, d.Contact)
	d.ArchiveAfterDays = lo.Ternary(d.ArchiveAfterDays <= 0, def.ArchiveAfterDays, d.ArchiveAfterDays)
	d.ProductType = lo.Ternary(d.ProductType == "", def.ProductType, d.ProductType)
	d.MinimumConnectionVoltage = lo.Ternary(d.MinimumConnectionVoltage == "", def.MinimumConnectionVoltage, d.MinimumConnectionVoltage)
	d.MinimumBudget = lo.Ternary(d.MinimumBudget == "", def.MinimumBudget, d.MinimumBudget)
	d.MaximumBudget = lo.Ternary(d.MaximumBudget == "", def.MaximumBudget, d.MaximumBudget)
	d.AvailabilityGuidePrice = lo.Ternary(d.AvailabilityGuidePrice == "", def.AvailabilityGuidePrice, d.AvailabilityGuidePrice)
	d.UtilisationGuidePrice = lo.Ternary(d.UtilisationGuidePrice == "", def.UtilisationGuidePrice, d.UtilisationGuidePrice)
	d.ServiceFee = lo.Ternary(d.ServiceFee == "", def.ServiceFee, d.ServiceFee)
	d.PricingType = lo.Ternary(d.PricingType == "", def.PricingType, d.PricingType)
	return d
}

// TemplateInput carries what a single competition is built from.
type TemplateInput struct {
	Site           string
	NominalVoltage string
	Reference      string
	Periods        []model.ServicePeriod
	Fields         Selection
	Defaults       Defaults
	// FinancialYear, when set, fixes the dates to the annual calendar.
	FinancialYear schedule.FinancialYearTable
}

// Template assembles a competition over the given periods. Dates come from
// the financial-year calendar when one is given, otherwise from the earliest
// period start.
func Template(in TemplateInput, log logger.Logger) (model.Competition, error) {
	log = logger.OrNop(log)
	if len(in.Periods) == 0 {
		return model.Competition{}, fmt.Errorf("no service periods for %s", in.Site)
	}
	start, err := periodStart(in.Periods)
	if err != nil {
		return model.Competition{}, err
	}

	var dates schedule.Dates
	if in.FinancialYear != nil {
		row, ok := in.FinancialYear.Lookup(start.Month())
		if !ok {
			return model.Competition{}, &model.ConfigError{
				Field:  "financial_year",
				Reason: fmt.Sprintf("no dates for %s", start.Month()),
			}
		}
		dates = row.Dates
	} else {
		dates = schedule.Generate(start)
	}
	if err := schedule.Validate(dates); err != nil {
		return model.Competition{}, fmt.Errorf("competition dates for %s: %w", start.Format(time.DateOnly), err)
	}
	f := dates.Format()

	site := strings.ToUpper(in.Site)
	periods := lo.Map(in.Periods, func(p model.ServicePeriod, _ int) model.ServicePeriod { return p.Clone() })
	c := model.Competition{
		Reference:           in.Reference,
		Name:                fmt.Sprintf("%s %s %d", site, start.Month(), start.Year()),
		Open:                f.BiddingOpen,
		Closed:              f.BiddingClosed,
		AreaBuffer:          AreaBuffer,
		QualificationOpen:   f.QualificationOpen,
		QualificationClosed: f.QualificationClosed,
		Boundary:            model.Boundary{AreaReferences: []string{site}, Postcodes: []string{}},
		NeedType:            NeedType,
		Type:                Type,
		NeedDirection:       NeedDirection,
		PowerType:           PowerType,
		ServicePeriods:      periods,
	}

	maxV, err := MaxConnectionVoltage(in.NominalVoltage)
	if err != nil {
		log.Warnf("using default maximum voltage %s kV: %v", maxV, err)
	}
	d := in.Defaults.fillEmpty()
	root := map[string]*string{
		"contact":                    &c.Contact,
		"archive_on":                 &c.ArchiveOn,
		"dps_record_reference":       &c.DPSRecordReference,
		"product_type":               &c.ProductType,
		"minimum_connection_voltage": &c.MinimumConnectionVoltage,
		"maximum_connection_voltage": &c.MaximumConnectionVoltage,
		"minimum_budget":             &c.MinimumBudget,
		"maximum_budget":             &c.MaximumBudget,
		"availability_guide_price":   &c.AvailabilityGuidePrice,
		"utilisation_guide_price":    &c.UtilisationGuidePrice,
		"service_fee":                &c.ServiceFee,
		"pricing_type":               &c.PricingType,
	}
	values := map[string]string{
		"contact":                    d.Contact,
		"archive_on":                 dates.BiddingClosed.AddDate(0, 0, d.ArchiveAfterDays).Format(schedule.Layout),
		"dps_record_reference":       "flex_" + strings.ToLower(in.Reference),
		"product_type":               d.ProductType,
		"minimum_connection_voltage": d.MinimumConnectionVoltage,
		"maximum_connection_voltage": maxV,
		"minimum_budget":             d.MinimumBudget,
		"maximum_budget":             d.MaximumBudget,
		"availability_guide_price":   d.AvailabilityGuidePrice,
		"utilisation_guide_price":    d.UtilisationGuidePrice,
		"service_fee":                d.ServiceFee,
		"pricing_type":               d.PricingType,
	}
	for _, name := range in.Fields.Root {
		if dst, ok := root[name]; ok {
			*dst = values[name]
		}
	}
	applyWindowFields(c.ServicePeriods, in.Fields, d.Window)
	return c, nil
}

// applyWindowFields sets selected window fields that have a configured
// value. Fields without a value stay absent.
func applyWindowFields(periods []model.ServicePeriod, sel Selection, values map[string]string) {
	for _, name := range sel.Window {
		v := values[name]
		if v == "" {
			continue
		}
		for i := range periods {
			for j := range periods[i].ServiceWindows {
				w := &periods[i].ServiceWindows[j]
				switch name {
				case "public_holiday_handling":
					w.PublicHolidayHandling = v
				case "minimum_run_time":
					w.MinimumRunTime = v
				case "required_response_time":
					w.RequiredResponseTime = v
				case "dispatch_estimate":
					w.DispatchEstimate = v
				case "dispatch_duration":
					w.DispatchDuration = v
				}
			}
		}
	}
}

func periodStart(periods []model.ServicePeriod) (time.Time, error) {
	var start time.Time
	for i, p := range periods {
		t, err := time.Parse(time.DateOnly, p.Start)
		if err != nil {
			return time.Time{}, fmt.Errorf("service period %q start: %w", p.Name, err)
		}
		if i == 0 || t.Before(start) {
			start = t
		}
	}
	return start, nil
}
