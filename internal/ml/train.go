package ml

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Training constants. The target column carries the continuous financial
// distress indicator, binarized at 0.5 for classification.
const (
	targetColumn      = "fdi"
	testFraction      = 0.2
	splitSeed         = 42
	binarizeThreshold = 0.5
)

// trainingData is the parsed dataset: feature matrix in dataset column
// order, continuous targets, and the canonical feature list.
type trainingData struct {
	X    [][]float64
	Y    []float64
	Cols []string
}

// loadTrainingData reads a CSV dataset, drops rows with a missing target,
// and selects every numeric non-target column as a feature in dataset
// column order. A missing file or target column is a DataError.
func loadTrainingData(csvPath string) (*trainingData, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, &DataError{Path: csvPath, Msg: fmt.Sprintf("training data not found: %v", err)}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, &DataError{Path: csvPath, Msg: fmt.Sprintf("parse csv: %v", err)}
	}
	if len(records) < 2 {
		return nil, &DataError{Path: csvPath, Msg: "dataset has no data rows"}
	}

	header := records[0]
	targetIdx := -1
	for i, name := range header {
		if name == targetColumn {
			targetIdx = i
		}
	}
	if targetIdx < 0 {
		return nil, &DataError{Path: csvPath, Msg: fmt.Sprintf("CSV must contain %q column", targetColumn)}
	}

	rows := records[1:]

	// A column is a feature when every populated cell parses as a number and
	// at least one cell is populated.
	numeric := make([]bool, len(header))
	for j := range header {
		if j == targetIdx {
			continue
		}
		seen := false
		numeric[j] = true
		for _, row := range rows {
			if j >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[j])
			if cell == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[j] = false
				break
			}
		}
		numeric[j] = numeric[j] && seen
	}

	var cols []string
	var colIdx []int
	for j, name := range header {
		if j != targetIdx && numeric[j] {
			cols = append(cols, name)
			colIdx = append(colIdx, j)
		}
	}
	if len(cols) == 0 {
		return nil, &DataError{Path: csvPath, Msg: "no numeric feature columns found"}
	}

	td := &trainingData{Cols: cols}
	for _, row := range rows {
		if targetIdx >= len(row) {
			continue
		}
		target, err := strconv.ParseFloat(strings.TrimSpace(row[targetIdx]), 64)
		if err != nil {
			continue // row with missing target is dropped
		}
		x := make([]float64, len(colIdx))
		for k, j := range colIdx {
			if j < len(row) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64); err == nil {
					x[k] = v
				}
			}
		}
		td.X = append(td.X, x)
		td.Y = append(td.Y, target)
	}
	if len(td.X) == 0 {
		return nil, &DataError{Path: csvPath, Msg: "all rows missing target value"}
	}

	log.Info().Int("samples", len(td.X)).Int("features", len(cols)).Str("path", csvPath).
		Msg("training data loaded")
	return td, nil
}

// trainTestSplit partitions indices 80/20 with a fixed seed, stratified on
// the binarized target so both partitions see both classes.
func trainTestSplit(y []float64) (train, test []int) {
	var pos, neg []int
	for i, v := range y {
		if v > binarizeThreshold {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng := rand.New(rand.NewSource(splitSeed))
	for _, group := range [][]int{neg, pos} {
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		nTest := int(float64(len(group))*testFraction + 0.5)
		if nTest == 0 && len(group) > 1 {
			nTest = 1
		}
		test = append(test, group[:nTest]...)
		train = append(train, group[nTest:]...)
	}
	return train, test
}

// binarize converts continuous targets to class labels at the 0.5 cut.
func binarize(y []float64, idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		if y[i] > binarizeThreshold {
			out[k] = 1
		}
	}
	return out
}

// evaluate computes accuracy, precision, recall and F1 of the forest on a
// scaled test partition.
func evaluate(f *Forest, X [][]float64, y []int) (ModelMetrics, error) {
	var tp, fp, tn, fn int
	for i, x := range X {
		prob, err := f.PredictProba(x)
		if err != nil {
			return ModelMetrics{}, err
		}
		pred := 0
		if prob >= 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}
	m := ModelMetrics{TestSamples: len(X)}
	total := tp + fp + tn + fn
	if total > 0 {
		m.Accuracy = float64(tp+tn) / float64(total)
	}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}
