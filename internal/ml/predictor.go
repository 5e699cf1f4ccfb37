package ml

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
)

// Risk labels, ordered from safest to riskiest. Higher probability means
// higher distress risk.
const (
	LabelHealthy    = "Healthy"
	LabelModerate   = "Moderate"
	LabelDistressed = "Distressed"
)

// Risk thresholds. 0.70 and above is Distressed, 0.40 and above is Moderate.
const (
	distressedThreshold = 0.70
	moderateThreshold   = 0.40
)

// RiskLabel maps a distress probability onto its discrete label.
func RiskLabel(prob float64) string {
	switch {
	case prob >= distressedThreshold:
		return LabelDistressed
	case prob >= moderateThreshold:
		return LabelModerate
	default:
		return LabelHealthy
	}
}

// MetricsInterface defines the metrics hooks the predictor reports into.
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(float64)
	PredictionScoreObserve(float64)
}

// Prediction is the caller-visible classification result.
type Prediction struct {
	Probability float64
	Risk        string
	Confidence  float64
}

// Preprocessed exposes the canonical feature mapping and scaled vector for a
// raw input without running the classifier.
type Preprocessed struct {
	FeatureOrder []string
	Features     map[string]float64
	Scaled       []float64
}

// Predictor serves classifications against the current model generation.
// The generation is swapped atomically by the version store; a request that
// started reading one generation never observes artifacts of another.
type Predictor struct {
	gen     atomic.Pointer[Generation]
	metrics MetricsInterface
}

// NewPredictor creates a predictor serving gen.
func NewPredictor(gen *Generation, metrics MetricsInterface) *Predictor {
	p := &Predictor{metrics: metrics}
	p.gen.Store(gen)
	return p
}

// Generation returns the generation currently being served.
func (p *Predictor) Generation() *Generation {
	return p.gen.Load()
}

// Publish atomically swaps in a fully prepared generation. Readers in flight
// keep the generation they loaded.
func (p *Predictor) Publish(gen *Generation) {
	p.gen.Store(gen)
}

// Predict classifies one raw input. Missing fields default to zero in the
// feature vector; a generation whose artifacts disagree on dimensionality
// surfaces as an InputError.
func (p *Predictor) Predict(src features.FieldSource) (Prediction, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		}
	}()

	gen := p.gen.Load()
	vec := features.Build(gen.FeatureCols, src)
	scaled, err := gen.Scaler.Transform(vec)
	if err != nil {
		p.countFailure()
		return Prediction{}, &InputError{Msg: err.Error()}
	}
	prob, err := gen.Model.PredictProba(scaled)
	if err != nil {
		p.countFailure()
		return Prediction{}, err
	}

	if p.metrics != nil {
		p.metrics.PredictionsInc()
		p.metrics.PredictionScoreObserve(prob)
	}
	return Prediction{
		Probability: prob,
		Risk:        RiskLabel(prob),
		Confidence:  prob,
	}, nil
}

// Preprocess builds the canonical feature mapping and scaled vector for a
// raw input, mirroring exactly what Predict would feed the model.
func (p *Predictor) Preprocess(src features.FieldSource) (*Preprocessed, error) {
	gen := p.gen.Load()
	vec := features.Build(gen.FeatureCols, src)
	scaled, err := gen.Scaler.Transform(vec)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	return &Preprocessed{
		FeatureOrder: append([]string(nil), gen.FeatureCols...),
		Features:     features.BuildMap(gen.FeatureCols, src),
		Scaled:       scaled,
	}, nil
}

func (p *Predictor) countFailure() {
	if p.metrics != nil {
		p.metrics.PredictionFailuresInc()
	}
}
