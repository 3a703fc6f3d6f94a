// Package robustness implements the overfitting-resistance suite: bootstrap
// and permutation resampling, trade skipping, parameter-perturbation
// fragility, PBO via combinatorially symmetric cross-validation, and the
// deflated Sharpe ratio. All Monte Carlo paths are seeded and reproducible;
// percentiles are always computed from the full pooled sample, never by
// averaging per-worker percentiles.
package robustness

import (
	"math"
	"sort"
)

// Distribution summarizes one pooled Monte Carlo sample set.
type Distribution struct {
	Mean float64
	Std  float64
	P5   float64
	P25  float64
	P50  float64
	P75  float64
	P95  float64
}

// MetricDistributions holds the four standard performance distributions.
type MetricDistributions struct {
	Sharpe      Distribution
	MaxDrawdown Distribution
	CompoundPnL Distribution
	WinRate     Distribution
}

// metricSamples collects per-iteration values for the four metrics.
type metricSamples struct {
	sharpe   []float64
	maxDD    []float64
	compound []float64
	winRate  []float64
}

func newMetricSamples(n int) *metricSamples {
	return &metricSamples{
		sharpe:   make([]float64, n),
		maxDD:    make([]float64, n),
		compound: make([]float64, n),
		winRate:  make([]float64, n),
	}
}

func (m *metricSamples) distributions() MetricDistributions {
	return MetricDistributions{
		Sharpe:      summarize(m.sharpe),
		MaxDrawdown: summarize(m.maxDD),
		CompoundPnL: summarize(m.compound),
		WinRate:     summarize(m.winRate),
	}
}

// summarize computes mean, sample std and interpolated percentiles from the
// full sample set.
func summarize(samples []float64) Distribution {
	if len(samples) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	std := 0.0
	if len(sorted) > 1 {
		std = math.Sqrt(variance / float64(len(sorted)-1))
	}

	return Distribution{
		Mean: mean,
		Std:  std,
		P5:   percentile(sorted, 0.05),
		P25:  percentile(sorted, 0.25),
		P50:  percentile(sorted, 0.50),
		P75:  percentile(sorted, 0.75),
		P95:  percentile(sorted, 0.95),
	}
}

// percentile linearly interpolates on a sorted sample.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := meanOf(values)
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}
