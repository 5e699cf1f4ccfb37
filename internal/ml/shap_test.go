package ml

import (
	"errors"
	"math"
	"testing"
)

// Additivity is the defining property of the attribution method: the base
// value plus the sum of all per-feature attributions reconstructs the
// model's output for the input.
func TestShapValues_Additivity(t *testing.T) {
	gen := newTestGeneration(t)

	probes := [][]float64{
		{5.0, -3.0},
		{-4.0, 2.5},
		{0.5, 0.5},
		{2.0, -1.0},
	}
	for _, raw := range probes {
		scaled, err := gen.Scaler.Transform(raw)
		if err != nil {
			t.Fatalf("transform %v: %v", raw, err)
		}
		phi, err := gen.Model.ShapValues(scaled)
		if err != nil {
			t.Fatalf("shap %v: %v", raw, err)
		}
		prob, err := gen.Model.PredictProba(scaled)
		if err != nil {
			t.Fatalf("predict %v: %v", raw, err)
		}

		sum := gen.Model.ExpectedValue()
		for _, p := range phi {
			sum += p
		}
		if math.Abs(sum-prob) > 1e-9 {
			t.Errorf("probe %v: base+sum(phi)=%.12f but prediction=%.12f", raw, sum, prob)
		}
	}
}

func TestShapValues_OnePerFeature(t *testing.T) {
	gen := newTestGeneration(t)

	scaled, err := gen.Scaler.Transform([]float64{5.0, -3.0})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	phi, err := gen.Model.ShapValues(scaled)
	if err != nil {
		t.Fatalf("shap: %v", err)
	}
	if len(phi) != len(gen.FeatureCols) {
		t.Errorf("got %d attributions for %d features", len(phi), len(gen.FeatureCols))
	}
}

func TestShapValues_DimensionMismatch(t *testing.T) {
	gen := newTestGeneration(t)

	_, err := gen.Model.ShapValues([]float64{1.0, 2.0, 3.0})
	var explErr *ExplanationError
	if !errors.As(err, &explErr) {
		t.Fatalf("expected ExplanationError, got %v", err)
	}
	if explErr.Shapes["input"] != "(3,)" || explErr.Shapes["model"] != "(2,)" {
		t.Errorf("unexpected shapes: %v", explErr.Shapes)
	}
}

func TestShapValues_DiscriminativeFeatureDominates(t *testing.T) {
	gen := newTestGeneration(t)

	// A strong positive-class point: its attributions should mostly push
	// the output up from the base value.
	scaled, err := gen.Scaler.Transform([]float64{5.0, -3.0})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	phi, err := gen.Model.ShapValues(scaled)
	if err != nil {
		t.Fatalf("shap: %v", err)
	}
	var total float64
	for _, p := range phi {
		total += p
	}
	if total <= 0 {
		t.Errorf("positive-class point has non-positive total attribution %.6f", total)
	}
}
