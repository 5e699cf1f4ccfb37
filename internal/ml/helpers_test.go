package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
)

// MockMetrics records predictor metric calls for assertions.
type MockMetrics struct {
	Predictions int
	Failures    int
	Latencies   []float64
	Scores      []float64
}

func (m *MockMetrics) PredictionsInc()        { m.Predictions++ }
func (m *MockMetrics) PredictionFailuresInc() { m.Failures++ }

func (m *MockMetrics) PredictionLatencyObserve(s float64) { m.Latencies = append(m.Latencies, s) }
func (m *MockMetrics) PredictionScoreObserve(s float64)   { m.Scores = append(m.Scores, s) }

// testMatrix builds a cleanly separable two-feature dataset: the positive
// class sits at high leverage and low liquidity, the negative class at the
// opposite corner.
func testMatrix(n int) (X [][]float64, y []int) {
	for i := 0; i < n; i++ {
		jitter := float64(i%7) * 0.01
		if i%2 == 0 {
			X = append(X, []float64{5.0 + jitter, -3.0 - jitter})
			y = append(y, 1)
		} else {
			X = append(X, []float64{-4.0 - jitter, 2.5 + jitter})
			y = append(y, 0)
		}
	}
	return X, y
}

// newTestGeneration trains a small forest on the separable dataset and wraps
// it with a fitted scaler and feature names.
func newTestGeneration(t *testing.T) *Generation {
	t.Helper()

	X, y := testMatrix(60)
	scaler, err := features.Fit(X)
	if err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	scaled := make([][]float64, len(X))
	for i, row := range X {
		s, err := scaler.Transform(row)
		if err != nil {
			t.Fatalf("scale row %d: %v", i, err)
		}
		scaled[i] = s
	}

	cfg := DefaultForestConfig()
	cfg.NumTrees = 25
	forest, err := FitForest(scaled, y, cfg)
	if err != nil {
		t.Fatalf("fit forest: %v", err)
	}

	return &Generation{
		Model:       forest,
		Scaler:      scaler,
		FeatureCols: []string{"leverage", "liquidity"},
		Meta:        Metadata{Version: "1.0"},
	}
}

// writeTrainingCSV drops a small labeled dataset into dir and returns its
// path. Ticker is non-numeric so column selection has something to skip.
func writeTrainingCSV(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "train.csv")
	body := "ticker,leverage,liquidity,fdi\n"
	for i := 0; i < 40; i++ {
		jitter := float64(i%5) * 0.01
		if i%2 == 0 {
			body += fmt.Sprintf("POS%d,%.3f,%.3f,0.9\n", i, 5.0+jitter, -3.0-jitter)
		} else {
			body += fmt.Sprintf("NEG%d,%.3f,%.3f,0.1\n", i, -4.0-jitter, 2.5+jitter)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write training csv: %v", err)
	}
	return path
}
