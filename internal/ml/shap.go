package ml

import "fmt"

// Exact TreeSHAP (path-extension form). Each tree distributes the gap
// between its output for x and its expected value across the features on the
// decision paths, weighted by the node covers recorded at training time.
// Forest attributions are the per-tree attributions averaged, so
// base + sum(phi) equals the forest probability exactly.

type pathElement struct {
	feature int
	zero    float64 // fraction of paths flowing through when the feature is unknown
	one     float64 // fraction when the feature is fixed to x
	weight  float64
}

// ShapValues computes one attribution per feature for a single scaled input,
// measured on the positive-class probability.
func (f *Forest) ShapValues(x []float64) ([]float64, error) {
	if len(x) != f.NumFeatures {
		return nil, &ExplanationError{
			Msg: "feature vector does not match model",
			Shapes: map[string]string{
				"input": fmt.Sprintf("(%d,)", len(x)),
				"model": fmt.Sprintf("(%d,)", f.NumFeatures),
			},
		}
	}
	if len(f.Trees) == 0 {
		return nil, &ExplanationError{Msg: "forest has no trees"}
	}
	phi := make([]float64, f.NumFeatures)
	for i := range f.Trees {
		f.Trees[i].shapInto(x, phi)
	}
	for j := range phi {
		phi[j] /= float64(len(f.Trees))
	}
	return phi, nil
}

func (t *Tree) shapInto(x []float64, phi []float64) {
	t.shapRecurse(x, phi, 0, nil, 1, 1, -1)
}

func (t *Tree) shapRecurse(x, phi []float64, node int, parent []pathElement, pz, po float64, pf int) {
	m := extendPath(parent, pz, po, pf)
	n := t.Nodes[node]

	if n.Feature == leafMarker {
		for i := 1; i < len(m); i++ {
			w := unwoundPathSum(m, i)
			phi[m[i].feature] += w * (m[i].one - m[i].zero) * n.Value
		}
		return
	}

	var hot, cold int
	if x[n.Feature] <= n.Threshold {
		hot, cold = n.Left, n.Right
	} else {
		hot, cold = n.Right, n.Left
	}
	hotZero := t.Nodes[hot].Cover / n.Cover
	coldZero := t.Nodes[cold].Cover / n.Cover

	// Undo an earlier split on the same feature before descending.
	iz, io := 1.0, 1.0
	for i := range m {
		if m[i].feature == n.Feature {
			iz, io = m[i].zero, m[i].one
			m = unwindPath(m, i)
			break
		}
	}

	t.shapRecurse(x, phi, hot, m, hotZero*iz, io, n.Feature)
	t.shapRecurse(x, phi, cold, m, coldZero*iz, 0, n.Feature)
}

// extendPath appends a feature to the path and redistributes the permutation
// weights across the new path length.
func extendPath(parent []pathElement, pz, po float64, pf int) []pathElement {
	l := len(parent)
	m := make([]pathElement, l+1)
	copy(m, parent)
	w := 0.0
	if l == 0 {
		w = 1.0
	}
	m[l] = pathElement{feature: pf, zero: pz, one: po, weight: w}
	for i := l - 1; i >= 0; i-- {
		m[i+1].weight += po * m[i].weight * float64(i+1) / float64(l+1)
		m[i].weight = pz * m[i].weight * float64(l-i) / float64(l+1)
	}
	return m
}

// unwindPath removes element k, inverting extendPath's weight updates.
func unwindPath(m []pathElement, k int) []pathElement {
	l := len(m) - 1
	one, zero := m[k].one, m[k].zero
	out := make([]pathElement, l)
	copy(out, m[:l])

	next := m[l].weight
	for i := l - 1; i >= 0; i-- {
		if one != 0 {
			tmp := out[i].weight
			out[i].weight = next * float64(l+1) / (float64(i+1) * one)
			next = tmp - out[i].weight*zero*float64(l-i)/float64(l+1)
		} else {
			out[i].weight = out[i].weight * float64(l+1) / (zero * float64(l-i))
		}
	}
	for i := k; i < l; i++ {
		out[i].feature = m[i+1].feature
		out[i].zero = m[i+1].zero
		out[i].one = m[i+1].one
	}
	return out
}

// unwoundPathSum is the total weight the path would carry with element k
// removed, without materializing the removal.
func unwoundPathSum(m []pathElement, k int) float64 {
	l := len(m) - 1
	one, zero := m[k].one, m[k].zero
	next := m[l].weight
	total := 0.0
	for i := l - 1; i >= 0; i-- {
		if one != 0 {
			tmp := next * float64(l+1) / (float64(i+1) * one)
			total += tmp
			next = m[i].weight - tmp*zero*float64(l-i)/float64(l+1)
		} else {
			total += m[i].weight / zero * float64(l+1) / float64(l-i)
		}
	}
	return total
}
