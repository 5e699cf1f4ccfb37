package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTrainingData_MissingFile(t *testing.T) {
	_, err := loadTrainingData(filepath.Join(t.TempDir(), "nope.csv"))
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestLoadTrainingData_MissingTargetColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	body := "a,b\n1,2\n3,4\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := loadTrainingData(path)
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestLoadTrainingData_ColumnSelectionAndRowDropping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.csv")
	body := "ticker,year,revenue,fdi\n" +
		"AAPL,2020,100.5,0.2\n" +
		"MSFT,2021,,0.8\n" + // empty feature cell becomes 0
		"NVDA,2022,50.0,\n" + // missing target, row dropped
		"META,2023,75.0,0.6\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	td, err := loadTrainingData(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// ticker is non-numeric and excluded; year and revenue are features.
	if len(td.Cols) != 2 || td.Cols[0] != "year" || td.Cols[1] != "revenue" {
		t.Fatalf("feature columns %v, want [year revenue]", td.Cols)
	}
	if len(td.X) != 3 {
		t.Fatalf("got %d rows, want 3 (one dropped for missing target)", len(td.X))
	}
	if td.X[1][1] != 0 {
		t.Errorf("empty feature cell parsed to %v, want 0", td.X[1][1])
	}
	if td.Y[1] != 0.8 {
		t.Errorf("target of second kept row %v, want 0.8", td.Y[1])
	}
}

func TestTrainTestSplit_StratifiedAndDeterministic(t *testing.T) {
	y := make([]float64, 50)
	for i := range y {
		if i%2 == 0 {
			y[i] = 0.9
		} else {
			y[i] = 0.1
		}
	}

	train1, test1 := trainTestSplit(y)
	train2, test2 := trainTestSplit(y)

	if len(train1) != len(train2) || len(test1) != len(test2) {
		t.Fatal("split is not deterministic")
	}
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatal("split is not deterministic")
		}
	}

	if len(train1)+len(test1) != len(y) {
		t.Fatalf("partitions cover %d of %d indices", len(train1)+len(test1), len(y))
	}
	// 20% of each 25-element class, rounded.
	if len(test1) != 10 {
		t.Errorf("test partition size %d, want 10", len(test1))
	}

	// Both classes present in the test partition.
	var pos, neg int
	for _, i := range test1 {
		if y[i] > binarizeThreshold {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		t.Errorf("test partition not stratified: %d pos, %d neg", pos, neg)
	}
}

func TestBinarize(t *testing.T) {
	y := []float64{0.1, 0.5, 0.51, 0.9}
	got := binarize(y, []int{0, 1, 2, 3})
	want := []int{0, 0, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binarize[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEvaluate_PerfectClassifier(t *testing.T) {
	gen := newTestGeneration(t)

	X, y := testMatrix(20)
	scaled := make([][]float64, len(X))
	for i, row := range X {
		s, err := gen.Scaler.Transform(row)
		if err != nil {
			t.Fatalf("scale: %v", err)
		}
		scaled[i] = s
	}

	m, err := evaluate(gen.Model, scaled, y)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if m.TestSamples != 20 {
		t.Errorf("test samples %d, want 20", m.TestSamples)
	}
	// Training data is cleanly separable, the forest should nail it.
	if m.Accuracy < 0.95 {
		t.Errorf("accuracy %.3f on separable data, want >= 0.95", m.Accuracy)
	}
	if m.F1 == 0 {
		t.Error("F1 is zero on separable data")
	}
}

func TestIncrementVersion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.0", "1.1"},
		{"1.9", "1.10"},
		{"2.3.4", "2.3.5"},
		{"garbage", "1"},
	}
	for _, tt := range tests {
		if got := incrementVersion(tt.in); got != tt.want {
			t.Errorf("incrementVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
