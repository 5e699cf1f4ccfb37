package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// Forest is a random-forest binary classifier. The probability output is the
// mean of the per-tree leaf probabilities, so attributions computed per tree
// average into attributions for the whole model.
type Forest struct {
	Trees       []Tree `json:"trees"`
	NumFeatures int    `json:"num_features"`
}

// ForestConfig controls training. The zero value is not usable; call
// DefaultForestConfig.
type ForestConfig struct {
	NumTrees       int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64
}

// DefaultForestConfig mirrors the hyperparameters the previous generations
// were trained with.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:       100,
		MaxDepth:       5,
		MinSamplesLeaf: 2,
		Seed:           42,
	}
}

// FitForest trains a forest on scaled features X and binary targets y.
// Training is deterministic for a fixed config: each tree draws its
// bootstrap sample and feature subsets from its own seeded source.
func FitForest(X [][]float64, y []int, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("forest fit: no samples")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("forest fit: %d samples but %d targets", len(X), len(y))
	}
	nFeatures := len(X[0])
	subset := int(math.Ceil(math.Sqrt(float64(nFeatures))))

	f := &Forest{
		Trees:       make([]Tree, 0, cfg.NumTrees),
		NumFeatures: nFeatures,
	}
	for t := 0; t < cfg.NumTrees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}
		tree := growTree(X, y, idx, treeConfig{
			MaxDepth:       cfg.MaxDepth,
			MinSamplesLeaf: cfg.MinSamplesLeaf,
			FeatureSubset:  subset,
		}, rng)
		f.Trees = append(f.Trees, *tree)
	}
	return f, nil
}

// PredictProba returns the positive-class probability for one scaled vector.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, &InputError{Msg: fmt.Sprintf("expected %d features, got %d", f.NumFeatures, len(x))}
	}
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// ExpectedValue is the forest's output absent any feature information, the
// base value attributions are measured against.
func (f *Forest) ExpectedValue() float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].expectedValue()
	}
	return sum / float64(len(f.Trees))
}
