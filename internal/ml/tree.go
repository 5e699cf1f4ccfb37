package ml

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART tree in flat-array form. Feature is -1 for
// leaves. Value is the positive-class fraction of the training samples the
// node saw; Cover is how many samples those were (the attribution weights).
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Cover     float64 `json:"cover"`
}

const leafMarker = -1

// Tree is a single classification tree with probability leaves.
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

// predict walks the tree for one scaled feature vector and returns the
// positive-class probability at the reached leaf.
func (t *Tree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Feature != leafMarker {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Value
}

// expectedValue is the cover-weighted mean of leaf values, i.e. the model
// output for an input about which nothing is known. Serves as the
// attribution base value.
func (t *Tree) expectedValue() float64 {
	var sum, cover float64
	for _, n := range t.Nodes {
		if n.Feature == leafMarker {
			sum += n.Value * n.Cover
			cover += n.Cover
		}
	}
	if cover == 0 {
		return 0
	}
	return sum / cover
}

// treeConfig bounds tree growth during training.
type treeConfig struct {
	MaxDepth       int
	MinSamplesLeaf int
	FeatureSubset  int // candidate features per split; 0 means all
}

// growTree fits a CART tree on X[idx] with binary targets y, using gini
// impurity. Returns the flat node slice.
func growTree(X [][]float64, y []int, idx []int, cfg treeConfig, rng *rand.Rand) *Tree {
	t := &Tree{}
	t.grow(X, y, idx, 0, cfg, rng)
	return t
}

// grow appends the subtree for idx and returns its root index.
func (t *Tree) grow(X [][]float64, y []int, idx []int, depth int, cfg treeConfig, rng *rand.Rand) int {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	value := float64(pos) / float64(len(idx))

	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{
		Feature: leafMarker,
		Value:   value,
		Cover:   float64(len(idx)),
	})

	if depth >= cfg.MaxDepth || len(idx) < 2*cfg.MinSamplesLeaf || pos == 0 || pos == len(idx) {
		return self
	}

	feature, threshold, ok := bestSplit(X, y, idx, cfg, rng)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < cfg.MinSamplesLeaf || len(right) < cfg.MinSamplesLeaf {
		return self
	}

	t.Nodes[self].Feature = feature
	t.Nodes[self].Threshold = threshold
	t.Nodes[self].Left = t.grow(X, y, left, depth+1, cfg, rng)
	t.Nodes[self].Right = t.grow(X, y, right, depth+1, cfg, rng)
	return self
}

// bestSplit scans a random feature subset for the split with the largest
// gini gain. Thresholds are midpoints between consecutive distinct values.
func bestSplit(X [][]float64, y []int, idx []int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	candidates := make([]int, nFeatures)
	for i := range candidates {
		candidates[i] = i
	}
	if cfg.FeatureSubset > 0 && cfg.FeatureSubset < nFeatures {
		rng.Shuffle(nFeatures, func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:cfg.FeatureSubset]
	}

	parent := giniOf(y, idx)
	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		totalPos := 0
		for _, i := range order {
			totalPos += y[i]
		}
		leftPos, leftN := 0, 0
		for k := 0; k < len(order)-1; k++ {
			leftPos += y[order[k]]
			leftN++
			cur, next := X[order[k]][f], X[order[k+1]][f]
			if cur == next {
				continue
			}
			rightN := len(order) - leftN
			rightPos := totalPos - leftPos
			gl := giniFromCounts(leftPos, leftN)
			gr := giniFromCounts(rightPos, rightN)
			gain := parent - (float64(leftN)*gl+float64(rightN)*gr)/float64(len(order))
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func giniOf(y []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	return giniFromCounts(pos, len(idx))
}

func giniFromCounts(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// maxTreeDepth reports the deepest path in the tree, for diagnostics.
func (t *Tree) maxTreeDepth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		if t.Nodes[i].Feature == leafMarker {
			return d
		}
		return int(math.Max(float64(walk(t.Nodes[i].Left, d+1)), float64(walk(t.Nodes[i].Right, d+1))))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}
