// Package analysis chains the per-site steps: load demand, invert the
// energy model for the firm capacity, build competitions from the overloads
// above it, validate them and write every result file.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/firmflex/core/batch"
	"github.com/kilianp07/firmflex/core/competition"
	"github.com/kilianp07/firmflex/core/energy"
	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/schema"
)

// Result file names inside <OutputDir>/<site>.
const (
	ResultsFile          = batch.ResultFile
	MetadataFile         = "metadata.json"
	CompetitionsFile     = "competitions.json"
	WindowEnergyFile     = "service_window_mwh.csv"
	ValidationErrorsFile = "validation_errors.json"
	PlainCurveFile       = "E_curve_plain.png"
	PeakCurveFile        = "E_curve_peak.png"
)

// Source loads a site's demand series.
type Source interface {
	Load(ctx context.Context, site string) (*model.DemandSeries, error)
}

// Renderer draws an energy-versus-capacity curve.
type Renderer interface {
	RenderCapacityCurve(demand []float64, fn energy.EnergyFunc, dt, capacity, target float64, path, title string) error
}

// Options parameterises a Pipeline.
type Options struct {
	OutputDir string
	TargetMWh float64
	// ToleranceFraction of max demand is the bisection tolerance in MW.
	ToleranceFraction float64
	MaxIterations     int
	// TargetYear moves timestamps to that year when non-zero.
	TargetYear  int
	MonthOffset int

	Competitions       bool
	CompetitionOptions competition.Options
}

// Result is the in-memory outcome of Analyze.
type Result struct {
	Series           *model.DemandSeries
	Stats            model.SiteStats
	Competitions     []model.Competition
	ValidationErrors []schema.ValidationError
	// KnownCapacity is set when inversion was skipped.
	KnownCapacity bool
}

// Windows counts service windows over all competitions.
func (r Result) Windows() int {
	n := 0
	for _, c := range r.Competitions {
		for _, p := range c.ServicePeriods {
			n += len(p.ServiceWindows)
		}
	}
	return n
}

// Pipeline runs the analysis for one site at a time and is safe for
// concurrent use: it holds no per-site state.
type Pipeline struct {
	Source    Source
	Renderer  Renderer
	Validator *schema.Validator
	Options   Options
	Log       logger.Logger
}

// Stats computes the demand statistics for capacities cPlain and cPeak.
func Stats(site string, demand []float64, dt, cPlain, cPeak float64) model.SiteStats {
	s := model.SiteStats{Substation: site, CPlainMW: cPlain, CPeakMW: cPeak}
	if len(demand) == 0 {
		return s
	}
	s.MeanDemandMW = stat.Mean(demand, nil)
	s.MaxDemandMW = floats.Max(demand)
	s.TotalEnergyMWh = floats.Sum(demand) * dt
	s.EnergyAboveCapacityMWh = energy.PeakBased(demand, cPeak, dt)
	return s
}

// Analyze loads the site and computes capacities and competitions without
// writing anything. A non-nil known capacity replaces both inversions.
func (p *Pipeline) Analyze(ctx context.Context, site string, known *float64) (*Result, error) {
	log := logger.OrNop(p.Log).With(map[string]any{"site": site})
	if p.Source == nil {
		return nil, fmt.Errorf("no demand source configured")
	}
	series, err := p.Source.Load(ctx, site)
	if err != nil {
		return nil, err
	}
	if series, err = p.shift(series); err != nil {
		return nil, err
	}
	demand := series.Values()
	dt := series.DeltaT
	log.Debugf("loaded %d samples, delta_t %.2f h", len(demand), dt)

	res := &Result{Series: series}
	var cPlain, cPeak float64
	if known != nil {
		cPlain, cPeak = *known, *known
		res.KnownCapacity = true
		log.Infof("using known firm capacity %.3f MW", *known)
	} else {
		tol := energy.Tolerance(demand, p.Options.ToleranceFraction)
		target := p.Options.TargetMWh
		cPlain = energy.Invert(energy.AboveCapacity, demand, dt, target, tol, p.Options.MaxIterations)
		cPeak = energy.Invert(energy.PeakBased, demand, dt, target, tol, p.Options.MaxIterations)
		log.Infof("firm capacity: plain %.3f MW, peak %.3f MW", cPlain, cPeak)
	}
	name := series.Site
	if name == "" {
		name = site
	}
	res.Stats = Stats(name, demand, dt, cPlain, cPeak)

	if !p.Options.Competitions {
		return res, nil
	}
	log.Infof("generating competitions with firm capacity %.2f MW", cPeak)
	comps, err := competition.Build(series, cPeak, p.Options.CompetitionOptions, log)
	if err != nil {
		return nil, fmt.Errorf("build competitions: %w", err)
	}
	res.Competitions = comps
	if len(comps) == 0 {
		log.Warnf("no competitions generated")
		return res, nil
	}
	if p.Validator != nil {
		res.ValidationErrors = p.Validator.Validate(comps)
	}
	return res, nil
}

func (p *Pipeline) shift(s *model.DemandSeries) (*model.DemandSeries, error) {
	var err error
	if p.Options.TargetYear != 0 {
		if s, err = s.WithYear(p.Options.TargetYear); err != nil {
			return nil, fmt.Errorf("shift to %d: %w", p.Options.TargetYear, err)
		}
	}
	if p.Options.MonthOffset != 0 {
		if s, err = s.WithMonthOffset(p.Options.MonthOffset); err != nil {
			return nil, fmt.Errorf("offset by %d months: %w", p.Options.MonthOffset, err)
		}
	}
	return s, nil
}

// Run implements batch.Runner: it analyses the site and writes its result
// files under <OutputDir>/<site>.
func (p *Pipeline) Run(ctx context.Context, req batch.Request) (*model.SiteReport, error) {
	if err := model.CheckSiteName(req.Site); err != nil {
		return nil, err
	}
	res, err := p.Analyze(ctx, req.Site, req.FirmCapacity)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(p.Options.OutputDir, req.Site)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	log := logger.OrNop(p.Log).With(map[string]any{"site": req.Site})
	if p.Renderer != nil {
		p.plot(res, dir, log)
	}
	if err := Write(dir, res, log); err != nil {
		return nil, err
	}
	return &model.SiteReport{
		Stats:            res.Stats,
		Competitions:     len(res.Competitions),
		Windows:          res.Windows(),
		ValidationErrors: len(res.ValidationErrors),
		OutputDir:        dir,
	}, nil
}

func (p *Pipeline) plot(res *Result, dir string, log logger.Logger) {
	demand := res.Series.Values()
	dt := res.Series.DeltaT
	target := p.Options.TargetMWh
	name := res.Stats.Substation
	curves := []struct {
		file  string
		title string
		fn    energy.EnergyFunc
		c     float64
	}{
		{PlainCurveFile, name + ": Plain E(C)", energy.AboveCapacity, res.Stats.CPlainMW},
		{PeakCurveFile, name + ": Peak-based E(C)", energy.PeakBased, res.Stats.CPeakMW},
	}
	for _, c := range curves {
		if err := p.Renderer.RenderCapacityCurve(demand, c.fn, dt, c.c, target, filepath.Join(dir, c.file), c.title); err != nil {
			log.Warnf("render %s: %v", c.file, err)
		}
	}
}
