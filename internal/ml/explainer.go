package ml

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
)

// Fixed cutoffs for the two summary views of the ranked contribution list.
const (
	importanceCutoff  = 15
	topFeaturesCutoff = 5
)

// FeatureContribution is one feature's share of a single prediction's
// deviation from the base value.
type FeatureContribution struct {
	Feature       string  `json:"feature"`
	Value         float64 `json:"value"`
	OriginalValue float64 `json:"original_value"`
	ShapValue     float64 `json:"shap_value"`
	Impact        string  `json:"impact"`
}

// Explanation is the full attribution result for one prediction.
// BaseValue plus the sum of all contributions approximates Prediction.
type Explanation struct {
	BaseValue         float64               `json:"base_value"`
	Prediction        float64               `json:"prediction"`
	FeatureImportance []FeatureContribution `json:"feature_importance"`
	TopFeatures       []FeatureContribution `json:"top_features"`
	TotalFeatures     int                   `json:"total_features"`

	// Ranked is the complete descending-|shap| list the two summary views
	// are cut from.
	Ranked []FeatureContribution `json:"-"`
}

// attributionKind tags the shape raw attribution values arrived in.
type attributionKind int

const (
	attribSingle attributionKind = iota
	attribPerClass
)

// rawAttributions is the untyped output of an attribution backend before
// normalization: either one array, or one array per class.
type rawAttributions struct {
	kind     attributionKind
	single   []float64
	perClass [][]float64
}

// normalize resolves raw attribution output into exactly one value per
// feature: the positive-class array (index 1) when a per-class list is
// present, otherwise the single array.
func (r rawAttributions) normalize(wantFeatures int) ([]float64, error) {
	var flat []float64
	switch r.kind {
	case attribPerClass:
		if len(r.perClass) == 0 {
			return nil, &ExplanationError{Msg: "empty per-class attribution list"}
		}
		if len(r.perClass) > 1 {
			flat = r.perClass[1]
		} else {
			flat = r.perClass[0]
		}
	case attribSingle:
		flat = r.single
	default:
		return nil, &ExplanationError{Msg: fmt.Sprintf("unknown attribution kind %d", r.kind)}
	}
	if len(flat) != wantFeatures {
		return nil, &ExplanationError{
			Msg: "attribution length does not match feature list",
			Shapes: map[string]string{
				"attributions": fmt.Sprintf("(%d,)", len(flat)),
				"features":     fmt.Sprintf("(%d,)", wantFeatures),
			},
		}
	}
	return flat, nil
}

// Explainer produces attribution explanations for single predictions.
// Availability is resolved once at construction: only tree-ensemble models
// support the attribution method, and an unavailable explainer fails every
// call fast without touching the model.
type Explainer struct {
	predictor *Predictor
	available bool
}

// NewExplainer builds an explainer over the predictor's model. The
// capability flag is fixed here and never re-checked per request.
func NewExplainer(p *Predictor) *Explainer {
	gen := p.Generation()
	available := gen != nil && gen.Model != nil && len(gen.Model.Trees) > 0
	if !available {
		log.Warn().Msg("attribution explainer unavailable: no tree ensemble loaded")
	} else {
		log.Info().Int("trees", len(gen.Model.Trees)).Msg("attribution explainer initialized")
	}
	return &Explainer{predictor: p, available: available}
}

// Available reports whether attribution explanations can be served.
func (e *Explainer) Available() bool { return e.available }

// Explain computes the ranked per-feature attribution for one raw input.
func (e *Explainer) Explain(src features.FieldSource) (*Explanation, error) {
	if !e.available {
		return nil, ErrExplainUnavailable
	}

	gen := e.predictor.Generation()
	vec := features.Build(gen.FeatureCols, src)
	scaled, err := gen.Scaler.Transform(vec)
	if err != nil {
		return nil, &InputError{Msg: err.Error()}
	}

	raw, baseValue, err := e.attribute(gen, scaled)
	if err != nil {
		return nil, err
	}
	flat, err := raw.normalize(len(gen.FeatureCols))
	if err != nil {
		return nil, err
	}

	prob, err := gen.Model.PredictProba(scaled)
	if err != nil {
		return nil, err
	}

	ranked := make([]FeatureContribution, len(gen.FeatureCols))
	for i, col := range gen.FeatureCols {
		impact := "negative"
		if flat[i] > 0 {
			impact = "positive"
		}
		ranked[i] = FeatureContribution{
			Feature:       col,
			Value:         scaled[i],
			OriginalValue: vec[i],
			ShapValue:     flat[i],
			Impact:        impact,
		}
	}
	// Descending by magnitude; the stable sort keeps original feature order
	// for ties.
	sort.SliceStable(ranked, func(a, b int) bool {
		return abs(ranked[a].ShapValue) > abs(ranked[b].ShapValue)
	})

	return &Explanation{
		BaseValue:         baseValue,
		Prediction:        prob,
		FeatureImportance: head(ranked, importanceCutoff),
		TopFeatures:       head(ranked, topFeaturesCutoff),
		TotalFeatures:     len(gen.FeatureCols),
		Ranked:            ranked,
	}, nil
}

// attribute runs TreeSHAP and wraps the result in the per-class form the
// normalization step expects. For a binary classifier the negative-class
// attributions are the positive-class attributions negated.
func (e *Explainer) attribute(gen *Generation, scaled []float64) (rawAttributions, float64, error) {
	positive, err := gen.Model.ShapValues(scaled)
	if err != nil {
		return rawAttributions{}, 0, err
	}
	negative := make([]float64, len(positive))
	for i, v := range positive {
		negative[i] = -v
	}
	base := gen.Model.ExpectedValue()
	return rawAttributions{
		kind:     attribPerClass,
		perClass: [][]float64{negative, positive},
	}, base, nil
}

func head(list []FeatureContribution, n int) []FeatureContribution {
	if len(list) < n {
		n = len(list)
	}
	out := make([]FeatureContribution, n)
	copy(out, list[:n])
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
