// Package energy models the residual energy a site draws above a candidate
// firm capacity and inverts that model to find the capacity matching a
// target energy budget.
package energy

import (
	"fmt"
	"math"
)

// EnergyFunc returns the energy in MWh above capacity for a demand series
// sampled every dt hours.
type EnergyFunc func(demand []float64, capacity, dt float64) float64

// Method selects which energy convention drives the inversion.
type Method string

const (
	// MethodPlain integrates every sample's excess over capacity.
	MethodPlain Method = "plain"
	// MethodPeak charges each overload run at its peak excess.
	MethodPeak Method = "peak"
)

// Func returns the EnergyFunc for the method.
func (m Method) Func() (EnergyFunc, error) {
	switch m {
	case MethodPlain:
		return AboveCapacity, nil
	case MethodPeak:
		return PeakBased, nil
	default:
		return nil, fmt.Errorf("unknown energy method %q", string(m))
	}
}

// AboveCapacity computes sum(max(d-C, 0)) * dt. Demand equal to capacity
// contributes nothing.
func AboveCapacity(demand []float64, capacity, dt float64) float64 {
	total := 0.0
	for _, d := range demand {
		if d > capacity {
			total += d - capacity
		}
	}
	return total * dt
}

// PeakBased adds (peak - C) * runLength * dt for every maximal run where
// demand > C. A run is charged at its worst sample, so the result is never
// below AboveCapacity.
func PeakBased(demand []float64, capacity, dt float64) float64 {
	total := 0.0
	n := len(demand)
	for i := 0; i < n; {
		if demand[i] <= capacity {
			i++
			continue
		}
		j := i
		peak := math.Inf(-1)
		for j < n && demand[j] > capacity {
			if demand[j] > peak {
				peak = demand[j]
			}
			j++
		}
		total += (peak - capacity) * float64(j-i) * dt
		i = j
	}
	return total
}
