package metrics

// PredictorWrapper adapts Metrics to the narrow interface the prediction
// engine reports into, avoiding a circular import.
type PredictorWrapper struct {
	m *Metrics
}

func NewPredictorWrapper(m *Metrics) *PredictorWrapper {
	return &PredictorWrapper{m: m}
}

func (w *PredictorWrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *PredictorWrapper) PredictionFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *PredictorWrapper) PredictionLatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *PredictorWrapper) PredictionScoreObserve(score float64) {
	w.m.PredictionScores.Observe(score)
}
