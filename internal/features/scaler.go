package features

import (
	"fmt"
	"math"
)

// scaleFloor keeps zero-variance features from producing Inf/NaN on
// transform. Any fitted scale below this is clamped.
const scaleFloor = 1e-8

// Scaler is a fitted per-feature standardization: subtract mean, divide by
// scale. Fitting happens only during retraining; serving reuses the fitted
// parameters and assumes the input vector order matches the fit order.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-feature mean and standard deviation over samples.
// Scales below the floor are clamped so Transform never divides by zero.
func Fit(samples [][]float64) (*Scaler, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("scaler fit: no samples")
	}
	n := len(samples[0])
	mean := make([]float64, n)
	scale := make([]float64, n)

	for _, row := range samples {
		if len(row) != n {
			return nil, fmt.Errorf("scaler fit: ragged sample, want %d features got %d", n, len(row))
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(samples))
	}
	for _, row := range samples {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / float64(len(samples)))
		if scale[j] < scaleFloor {
			scale[j] = scaleFloor
		}
	}
	return &Scaler{Mean: mean, Scale: scale}, nil
}

// Transform returns the standardized copy of v. The component order must
// match the order the scaler was fitted with.
func (s *Scaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.Mean) {
		return nil, fmt.Errorf("scaler transform: want %d features, got %d", len(s.Mean), len(v))
	}
	out := make([]float64, len(v))
	for i, x := range v {
		sc := s.Scale[i]
		if sc < scaleFloor {
			sc = scaleFloor
		}
		out[i] = (x - s.Mean[i]) / sc
	}
	return out, nil
}

// Len reports the number of features the scaler was fitted with.
func (s *Scaler) Len() int { return len(s.Mean) }
