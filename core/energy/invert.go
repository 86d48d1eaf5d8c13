package energy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultMaxIterations bounds the bisection.
	DefaultMaxIterations = 50
	// FallbackTolerance is used when max demand cannot provide a tolerance.
	FallbackTolerance = 1e-3
)

// Tolerance converts a fraction of the maximum demand into the absolute
// bisection tolerance in MW. Empty or degenerate demand yields
// FallbackTolerance.
func Tolerance(demand []float64, fraction float64) float64 {
	if len(demand) == 0 {
		return FallbackTolerance
	}
	tol := fraction * floats.Max(demand)
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol <= 0 {
		return FallbackTolerance
	}
	return tol
}

// Invert bisects capacity over [0, max(demand)] until fn(capacity) matches
// target. When fn(mid) > target the capacity is too low and the lower bound
// moves up; otherwise the upper bound moves down. The search stops once the
// bracket is narrower than tol or after maxIter steps, and returns the
// bracket midpoint.
func Invert(fn EnergyFunc, demand []float64, dt, target, tol float64, maxIter int) float64 {
	if len(demand) == 0 {
		return 0
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	if tol <= 0 {
		tol = FallbackTolerance
	}
	low, high := 0.0, floats.Max(demand)
	if high < low {
		// all-negative demand: nothing to bisect
		return 0
	}
	for i := 0; i < maxIter; i++ {
		mid := 0.5 * (low + high)
		if fn(demand, mid, dt) > target {
			low = mid
		} else {
			high = mid
		}
		if high-low < tol {
			break
		}
	}
	return 0.5 * (low + high)
}
