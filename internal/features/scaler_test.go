package features

import (
	"math"
	"testing"
)

func TestFit_MeanAndScale(t *testing.T) {
	samples := [][]float64{
		{1, 10},
		{3, 10},
	}
	s, err := Fit(samples)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	if s.Mean[0] != 2 {
		t.Errorf("mean[0] = %v, want 2", s.Mean[0])
	}
	if s.Scale[0] != 1 {
		t.Errorf("scale[0] = %v, want 1", s.Scale[0])
	}
	// Second feature is constant, scale clamps to the floor instead of zero.
	if s.Scale[1] != scaleFloor {
		t.Errorf("zero-variance scale = %v, want clamp %v", s.Scale[1], scaleFloor)
	}
}

func TestTransform_Standardizes(t *testing.T) {
	s, err := Fit([][]float64{{0, 0}, {2, 4}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	out, err := s.Transform([]float64{2, 4})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for i, v := range out {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("component %d = %v, want 1", i, v)
		}
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		t.Error("transform produced non-finite value")
	}
}

func TestTransform_ZeroVarianceFeatureIsFinite(t *testing.T) {
	s, err := Fit([][]float64{{5}, {5}, {5}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := s.Transform([]float64{6})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		t.Errorf("zero-variance transform not finite: %v", out[0])
	}
}

func TestTransform_LengthMismatch(t *testing.T) {
	s, err := Fit([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := s.Transform([]float64{1}); err == nil {
		t.Error("expected error on length mismatch")
	}
}

func TestFit_Errors(t *testing.T) {
	if _, err := Fit(nil); err == nil {
		t.Error("expected error on empty sample set")
	}
	if _, err := Fit([][]float64{{1, 2}, {3}}); err == nil {
		t.Error("expected error on ragged samples")
	}
}
