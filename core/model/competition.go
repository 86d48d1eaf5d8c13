package model

import "time"

// ServiceWindow is a recurring time-of-day interval on given weekdays during
// which flexibility is required.
type ServiceWindow struct {
	Name                      string   `json:"name"`
	Start                     string   `json:"start"`
	End                       string   `json:"end"`
	ServiceDays               []string `json:"service_days"`
	MinimumAggregateAssetSize string   `json:"minimum_aggregate_asset_size"`
	CapacityRequired          string   `json:"capacity_required"`

	PublicHolidayHandling string `json:"public_holiday_handling,omitempty"`
	MinimumRunTime        string `json:"minimum_run_time,omitempty"`
	RequiredResponseTime  string `json:"required_response_time,omitempty"`
	DispatchEstimate      string `json:"dispatch_estimate,omitempty"`
	DispatchDuration      string `json:"dispatch_duration,omitempty"`

	// Calculation-only fields, cleared before persistence.
	DurationHours float64 `json:"duration_hours,omitempty"`
	EnergyMWh     float64 `json:"energy_mwh,omitempty"`

	// SegmentDate is used for grouping into periods and cleared afterwards.
	SegmentDate time.Time `json:"-"`
}

// Clone returns a deep copy of the window.
func (w ServiceWindow) Clone() ServiceWindow {
	w.ServiceDays = append([]string(nil), w.ServiceDays...)
	return w
}

// ServicePeriod groups service windows by calendar month or day.
type ServicePeriod struct {
	Name           string          `json:"name"`
	Start          string          `json:"start"`
	End            string          `json:"end"`
	ServiceWindows []ServiceWindow `json:"service_windows"`
}

// Clone returns a deep copy of the period.
func (p ServicePeriod) Clone() ServicePeriod {
	ws := make([]ServiceWindow, len(p.ServiceWindows))
	for i, w := range p.ServiceWindows {
		ws[i] = w.Clone()
	}
	p.ServiceWindows = ws
	return p
}

// Boundary lists the areas a competition applies to.
type Boundary struct {
	AreaReferences []string `json:"area_references"`
	Postcodes      []string `json:"postcodes"`
}

// Competition is a schema-conformant procurement record.
type Competition struct {
	Reference           string          `json:"reference"`
	Name                string          `json:"name"`
	Open                string          `json:"open"`
	Closed              string          `json:"closed"`
	AreaBuffer          string          `json:"area_buffer"`
	QualificationOpen   string          `json:"qualification_open"`
	QualificationClosed string          `json:"qualification_closed"`
	Boundary            Boundary        `json:"boundary"`
	NeedType            string          `json:"need_type"`
	Type                string          `json:"type"`
	NeedDirection       string          `json:"need_direction"`
	PowerType           string          `json:"power_type"`
	ServicePeriods      []ServicePeriod `json:"service_periods"`

	Contact                  string `json:"contact,omitempty"`
	ArchiveOn                string `json:"archive_on,omitempty"`
	DPSRecordReference       string `json:"dps_record_reference,omitempty"`
	ProductType              string `json:"product_type,omitempty"`
	MinimumConnectionVoltage string `json:"minimum_connection_voltage,omitempty"`
	MaximumConnectionVoltage string `json:"maximum_connection_voltage,omitempty"`
	MinimumBudget            string `json:"minimum_budget,omitempty"`
	MaximumBudget            string `json:"maximum_budget,omitempty"`
	AvailabilityGuidePrice   string `json:"availability_guide_price,omitempty"`
	UtilisationGuidePrice    string `json:"utilisation_guide_price,omitempty"`
	ServiceFee               string `json:"service_fee,omitempty"`
	PricingType              string `json:"pricing_type,omitempty"`
}

// Clone returns a deep copy of the competition.
func (c Competition) Clone() Competition {
	c.Boundary.AreaReferences = append([]string{}, c.Boundary.AreaReferences...)
	c.Boundary.Postcodes = append([]string{}, c.Boundary.Postcodes...)
	ps := make([]ServicePeriod, len(c.ServicePeriods))
	for i, p := range c.ServicePeriods {
		ps[i] = p.Clone()
	}
	c.ServicePeriods = ps
	return c
}

// TotalEnergy sums EnergyMWh over every window of the competition.
func (c Competition) TotalEnergy() float64 {
	total := 0.0
	for _, p := range c.ServicePeriods {
		for _, w := range p.ServiceWindows {
			total += w.EnergyMWh
		}
	}
	return total
}
