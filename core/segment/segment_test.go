package segment

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/core/energy"
	"github.com/kilianp07/firmflex/core/model"
)

func series(t *testing.T, start time.Time, values ...float64) *model.DemandSeries {
	t.Helper()
	samples := make([]model.Sample, len(values))
	for i, v := range values {
		samples[i] = model.Sample{Time: start.Add(time.Duration(i) * 30 * time.Minute), DemandMW: v}
	}
	s, err := model.NewDemandSeries("test", samples, 0.5)
	require.NoError(t, err)
	return s
}

func TestFindSegments(t *testing.T) {
	// Saturday 5 April 2025
	start := time.Date(2025, 4, 5, 9, 0, 0, 0, time.UTC)
	s := series(t, start, 8, 12, 15, 10, 11, 11, 9)
	segs := Find(s, 10, nil)
	require.Len(t, segs, 2)

	first := segs[0]
	assert.Equal(t, 1, first.StartIdx)
	assert.Equal(t, 3, first.EndIdx)
	assert.Equal(t, 15.0, first.Peak)
	assert.Equal(t, start.Add(time.Hour), first.PeakTime)
	assert.InDelta(t, 5, first.RequiredReduction, 1e-12)
	assert.Equal(t, 2, first.DurationPeriods)
	assert.InDelta(t, 1.0, first.DurationHours, 1e-12)
	assert.InDelta(t, 5.0, first.EnergyMWh, 1e-12)
	assert.Equal(t, start.Add(30*time.Minute), first.Start)
	assert.Equal(t, start.Add(time.Hour), first.End)
	assert.True(t, first.IsWeekend)
	assert.Equal(t, time.Saturday, first.Weekday)
	assert.Equal(t, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC), first.Date)

	second := segs[1]
	assert.Equal(t, 4, second.StartIdx)
	assert.Equal(t, 6, second.EndIdx)
	assert.InDelta(t, 1.0, second.EnergyMWh, 1e-12)
}

func TestFindNoOverload(t *testing.T) {
	s := series(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2, 3)
	assert.Empty(t, Find(s, 3, nil))
}

func TestSegmentEnergyMatchesPeakBased(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	values := make([]float64, 1000)
	for i := range values {
		values[i] = 10 + 8*r.Float64()
	}
	s := series(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), values...)
	for _, c := range []float64{9, 12, 14.5, 17.9, 20} {
		segs := Find(s, c, nil)
		assert.InDelta(t, energy.PeakBased(values, c, 0.5), TotalEnergy(segs), EnergyTolerance)
	}
}
