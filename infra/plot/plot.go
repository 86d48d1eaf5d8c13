// Package plot renders energy-versus-capacity curves as PNG images.
package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kilianp07/firmflex/core/energy"
)

const defaultSamples = 200

// Renderer draws E(C) over [0, max demand] and marks the chosen capacity
// and the energy target.
type Renderer struct {
	Width   vg.Length
	Height  vg.Length
	Samples int
}

// NewRenderer returns a Renderer with 8x5 inch output.
func NewRenderer() *Renderer {
	return &Renderer{Width: 8 * vg.Inch, Height: 5 * vg.Inch, Samples: defaultSamples}
}

// Curve samples fn at n evenly spaced capacities from 0 to max(demand).
func Curve(demand []float64, fn energy.EnergyFunc, dt float64, n int) plotter.XYs {
	if len(demand) == 0 || n < 2 {
		return nil
	}
	hi := floats.Max(demand)
	if hi <= 0 {
		hi = 1
	}
	caps := floats.Span(make([]float64, n), 0, hi)
	xys := make(plotter.XYs, n)
	for i, c := range caps {
		xys[i].X = c
		xys[i].Y = fn(demand, c, dt)
	}
	return xys
}

// RenderCapacityCurve writes a PNG to path.
func (r *Renderer) RenderCapacityCurve(demand []float64, fn energy.EnergyFunc, dt, capacity, target float64, path, title string) error {
	n := r.Samples
	if n < 2 {
		n = defaultSamples
	}
	xys := Curve(demand, fn, dt, n)
	if len(xys) == 0 {
		return fmt.Errorf("no demand to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Firm capacity (MW)"
	p.Y.Label.Text = "Energy above capacity (MWh)"
	p.Add(plotter.NewGrid())

	curve, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("curve: %w", err)
	}
	p.Add(curve)
	p.Legend.Add("E(C)", curve)

	targetLine := plotter.NewFunction(func(float64) float64 { return target })
	targetLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(targetLine)
	p.Legend.Add(fmt.Sprintf("target %.2f MWh", target), targetLine)

	marker, err := plotter.NewScatter(plotter.XYs{{X: capacity, Y: fn(demand, capacity, dt)}})
	if err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	marker.Radius = vg.Points(4)
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf("C = %.3f MW", capacity), marker)

	p.X.Min = 0
	p.Y.Min = 0

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	w, h := r.Width, r.Height
	if w == 0 || h == 0 {
		w, h = 8*vg.Inch, 5*vg.Inch
	}
	return p.Save(w, h, path)
}
