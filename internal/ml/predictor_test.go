package ml

import (
	"testing"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
)

func TestRiskLabel_Boundaries(t *testing.T) {
	tests := []struct {
		prob float64
		want string
	}{
		{0.85, LabelDistressed},
		{0.70, LabelDistressed},
		{0.699, LabelModerate},
		{0.55, LabelModerate},
		{0.40, LabelModerate},
		{0.399, LabelHealthy},
		{0.10, LabelHealthy},
		{0.0, LabelHealthy},
		{1.0, LabelDistressed},
	}
	for _, tt := range tests {
		if got := RiskLabel(tt.prob); got != tt.want {
			t.Errorf("RiskLabel(%.3f) = %q, want %q", tt.prob, got, tt.want)
		}
	}
}

func TestPredict_KnownInput(t *testing.T) {
	gen := newTestGeneration(t)
	mock := &MockMetrics{}
	p := NewPredictor(gen, mock)

	pred, err := p.Predict(features.RecordSource{
		"leverage":  5.0,
		"liquidity": -3.0,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.Probability <= 0.5 {
		t.Errorf("distressed point scored %.4f, want > 0.5", pred.Probability)
	}
	if pred.Risk != RiskLabel(pred.Probability) {
		t.Errorf("risk %q does not match probability %.4f", pred.Risk, pred.Probability)
	}
	if pred.Confidence != pred.Probability {
		t.Errorf("confidence %.4f != probability %.4f", pred.Confidence, pred.Probability)
	}

	if mock.Predictions != 1 {
		t.Errorf("predictions counter = %d, want 1", mock.Predictions)
	}
	if len(mock.Latencies) != 1 || len(mock.Scores) != 1 {
		t.Errorf("latency/score observations = %d/%d, want 1/1", len(mock.Latencies), len(mock.Scores))
	}
}

func TestPredict_MissingFieldsDefaultToZero(t *testing.T) {
	gen := newTestGeneration(t)
	p := NewPredictor(gen, nil)

	// Entirely empty input still predicts: every feature defaults to 0.0.
	pred, err := p.Predict(features.RecordSource{})
	if err != nil {
		t.Fatalf("predict on empty input: %v", err)
	}
	if pred.Probability < 0 || pred.Probability > 1 {
		t.Errorf("probability %.4f out of [0,1]", pred.Probability)
	}

	// Unknown fields are ignored, known fields picked up.
	full, err := p.Predict(features.RecordSource{
		"leverage":   5.0,
		"liquidity":  -3.0,
		"irrelevant": 99.0,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if full.Probability <= 0.5 {
		t.Errorf("extra fields changed classification: %.4f", full.Probability)
	}
}

func TestPredict_StringNumbers(t *testing.T) {
	gen := newTestGeneration(t)
	p := NewPredictor(gen, nil)

	a, err := p.Predict(features.RecordSource{"leverage": 5.0, "liquidity": -3.0})
	if err != nil {
		t.Fatalf("predict numeric: %v", err)
	}
	b, err := p.Predict(features.RowSource{"leverage": " 5.0 ", "liquidity": "-3.0"})
	if err != nil {
		t.Fatalf("predict strings: %v", err)
	}
	if a.Probability != b.Probability {
		t.Errorf("string input scored %.6f, numeric %.6f", b.Probability, a.Probability)
	}
}

func TestPublish_SwapsGeneration(t *testing.T) {
	gen := newTestGeneration(t)
	p := NewPredictor(gen, nil)

	if p.Generation() != gen {
		t.Fatal("predictor does not serve the initial generation")
	}

	next := newTestGeneration(t)
	next.Meta.Version = "1.1"
	p.Publish(next)

	if got := p.Generation(); got != next {
		t.Fatal("publish did not swap the generation")
	}
	if p.Generation().Meta.Version != "1.1" {
		t.Errorf("serving version %q, want 1.1", p.Generation().Meta.Version)
	}
}

func TestPreprocess_MirrorsPredictInput(t *testing.T) {
	gen := newTestGeneration(t)
	p := NewPredictor(gen, nil)

	pre, err := p.Preprocess(features.RecordSource{"leverage": 5.0})
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if len(pre.FeatureOrder) != 2 || pre.FeatureOrder[0] != "leverage" {
		t.Errorf("unexpected feature order %v", pre.FeatureOrder)
	}
	if pre.Features["leverage"] != 5.0 {
		t.Errorf("feature map leverage = %v, want 5", pre.Features["leverage"])
	}
	if pre.Features["liquidity"] != 0.0 {
		t.Errorf("missing field mapped to %v, want 0", pre.Features["liquidity"])
	}
	if len(pre.Scaled) != 2 {
		t.Errorf("scaled vector length %d, want 2", len(pre.Scaled))
	}
}
