package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/core/batch"
	"github.com/kilianp07/firmflex/core/competition"
	"github.com/kilianp07/firmflex/core/energy"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/core/schema"
)

type mapSource map[string]*model.DemandSeries

func (m mapSource) Load(_ context.Context, site string) (*model.DemandSeries, error) {
	s, ok := m[site]
	if !ok {
		return nil, &model.InputError{Site: site, Reason: "demand file not found"}
	}
	return s, nil
}

type recordingRenderer struct {
	files []string
	err   error
}

func (r *recordingRenderer) RenderCapacityCurve(_ []float64, _ energy.EnergyFunc, _, _, _ float64, path, _ string) error {
	r.files = append(r.files, filepath.Base(path))
	return r.err
}

// aprilSeries is half-hourly demand at 5 MW with a two-hour 20 MW run from
// 17:00 on 1, 9, 17 and 25 April.
func aprilSeries(t *testing.T, year int) *model.DemandSeries {
	t.Helper()
	peaks := map[int]bool{1: true, 9: true, 17: true, 25: true}
	var samples []model.Sample
	start := time.Date(year, 4, 1, 0, 0, 0, 0, time.UTC)
	for ts := start; ts.Month() == time.April; ts = ts.Add(30 * time.Minute) {
		v := 5.0
		if peaks[ts.Day()] && ts.Hour() >= 17 && ts.Hour() < 19 {
			v = 20
		}
		samples = append(samples, model.Sample{Time: ts, DemandMW: v})
	}
	s, err := model.NewDemandSeries("Site A", samples, 0)
	require.NoError(t, err)
	return s
}

func pipeline(t *testing.T, src Source) *Pipeline {
	return &Pipeline{
		Source: src,
		Options: Options{
			OutputDir:          t.TempDir(),
			TargetMWh:          80,
			ToleranceFraction:  0.001,
			MaxIterations:      50,
			Competitions:       true,
			CompetitionOptions: competition.Options{ProcurementMinutes: 30},
		},
	}
}

func TestStats(t *testing.T) {
	s := Stats("X", []float64{2, 4, 6, 8}, 0.5, 5, 6)
	assert.Equal(t, 5.0, s.MeanDemandMW)
	assert.Equal(t, 8.0, s.MaxDemandMW)
	assert.Equal(t, 10.0, s.TotalEnergyMWh)
	assert.Equal(t, 1.0, s.EnergyAboveCapacityMWh)
	assert.Equal(t, model.SiteStats{Substation: "Y", CPeakMW: 1}, Stats("Y", nil, 0.5, 0, 1))
}

func TestAnalyzeInvertsCapacities(t *testing.T) {
	p := pipeline(t, mapSource{"a": aprilSeries(t, 2025)})
	res, err := p.Analyze(context.Background(), "a", nil)
	require.NoError(t, err)

	assert.False(t, res.KnownCapacity)
	assert.Equal(t, "Site A", res.Stats.Substation)
	assert.InDelta(t, 10, res.Stats.CPeakMW, 0.02)
	assert.InDelta(t, 10, res.Stats.CPlainMW, 0.02)
	assert.Equal(t, 20.0, res.Stats.MaxDemandMW)
	assert.InDelta(t, 80, res.Stats.EnergyAboveCapacityMWh, 0.5)

	require.Len(t, res.Competitions, 1)
	assert.Equal(t, "T2504_SPEN_SiteA", res.Competitions[0].Reference)
	assert.Equal(t, 4, res.Windows())
}

func TestAnalyzeZeroTargetConvergesToPeak(t *testing.T) {
	p := pipeline(t, mapSource{"a": aprilSeries(t, 2025)})
	p.Options.TargetMWh = 0
	p.Options.Competitions = false
	res, err := p.Analyze(context.Background(), "a", nil)
	require.NoError(t, err)
	assert.InDelta(t, 20, res.Stats.CPeakMW, 0.02)
	assert.LessOrEqual(t, res.Stats.CPeakMW, 20.0)
	assert.Empty(t, res.Competitions)
}

func TestAnalyzeShiftsTargetYear(t *testing.T) {
	p := pipeline(t, mapSource{"a": aprilSeries(t, 2024)})
	p.Options.TargetYear = 2026
	res, err := p.Analyze(context.Background(), "a", nil)
	require.NoError(t, err)
	require.Len(t, res.Competitions, 1)
	assert.Equal(t, "T2604_SPEN_SiteA", res.Competitions[0].Reference)
	assert.Equal(t, 2026, res.Series.At(0).Time.Year())
}

func TestAnalyzeMissingSite(t *testing.T) {
	p := pipeline(t, mapSource{})
	_, err := p.Analyze(context.Background(), "nope", nil)
	var ie *model.InputError
	require.True(t, errors.As(err, &ie))
}

func TestRunWritesOutputs(t *testing.T) {
	r := &recordingRenderer{err: errors.New("no fonts")}
	p := pipeline(t, mapSource{"a": aprilSeries(t, 2025)})
	p.Renderer = r
	known := 10.0

	rep, err := p.Run(context.Background(), batch.Request{Site: "a", FirmCapacity: &known})
	require.NoError(t, err)
	assert.Equal(t, 10.0, rep.Stats.CPeakMW)
	assert.Equal(t, 10.0, rep.Stats.CPlainMW)
	assert.Equal(t, 1, rep.Competitions)
	assert.Equal(t, 4, rep.Windows)
	assert.Equal(t, []string{PlainCurveFile, PeakCurveFile}, r.files)

	dir := filepath.Join(p.Options.OutputDir, "a")
	for _, f := range []string{ResultsFile, MetadataFile, CompetitionsFile, WindowEnergyFile} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
	_, err = os.Stat(filepath.Join(dir, ValidationErrorsFile))
	assert.True(t, os.IsNotExist(err))

	b, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(b, &meta))
	assert.Equal(t, 10.0, meta["C_peak_MW"])
	assert.Equal(t, "Site A", meta["substation"])

	b, err = os.ReadFile(filepath.Join(dir, CompetitionsFile))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "energy_mwh")
}

const contactSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["reference", "contact"]
}`

func TestRunWritesValidationErrors(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(contactSchema), 0o644))
	v, err := schema.Load(schemaPath, nil)
	require.NoError(t, err)

	p := pipeline(t, mapSource{"a": aprilSeries(t, 2025)})
	p.Validator = v
	rep, err := p.Run(context.Background(), batch.Request{Site: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.ValidationErrors)

	b, err := os.ReadFile(filepath.Join(p.Options.OutputDir, "a", ValidationErrorsFile))
	require.NoError(t, err)
	var errs []schema.ValidationError
	require.NoError(t, json.Unmarshal(b, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "SITE A April 2025", errs[0].CompetitionName)
}

func TestRunSatisfiesBatchRunner(t *testing.T) {
	p := pipeline(t, mapSource{"a": aprilSeries(t, 2025)})
	o := &batch.Orchestrator{Workers: 2, OutputDir: p.Options.OutputDir, Runner: p, SkipExisting: true}
	sum := o.Run(context.Background(), []batch.Request{{Site: "a"}, {Site: "missing"}})
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)

	again := o.Run(context.Background(), []batch.Request{{Site: "a"}})
	assert.Equal(t, 1, again.Skipped)
}
