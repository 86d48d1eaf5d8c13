package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/core/energy"
)

func TestCurveIsNonIncreasing(t *testing.T) {
	demand := []float64{1, 4, 8, 3, 9, 2}
	xys := Curve(demand, energy.AboveCapacity, 0.5, 20)
	require.Len(t, xys, 20)
	assert.Equal(t, 0.0, xys[0].X)
	assert.Equal(t, 9.0, xys[19].X)
	for i := 1; i < len(xys); i++ {
		assert.LessOrEqual(t, xys[i].Y, xys[i-1].Y)
	}
	assert.Nil(t, Curve(nil, energy.AboveCapacity, 0.5, 20))
}

func TestRenderCapacityCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "E_curve_plain.png")
	r := NewRenderer()
	r.Samples = 30
	err := r.RenderCapacityCurve([]float64{1, 5, 7, 2}, energy.AboveCapacity, 0.5, 4, 2, path, "Site")
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))

	err = r.RenderCapacityCurve(nil, energy.AboveCapacity, 0.5, 0, 0, path, "empty")
	assert.Error(t, err)
}
