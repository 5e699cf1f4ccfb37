// Package server exposes the prediction, explanation, data exploration, and
// model inspection API over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/livedata"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/metrics"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/ml"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/storage"
)

const defaultHistoryLimit = 50

// Server wires the serving predictor, attribution engine, model store, and
// data stores behind a chi router.
type Server struct {
	predictor *ml.Predictor
	explainer *ml.Explainer
	manager   *ml.ModelManager
	history   *storage.HistoryStore
	samples   *storage.SampleStore
	live      *livedata.Client
	metrics   *metrics.Metrics
	router    *chi.Mux
}

// New assembles the HTTP facade. history, samples, and live may each be nil
// when the corresponding capability is not configured.
func New(
	predictor *ml.Predictor,
	explainer *ml.Explainer,
	manager *ml.ModelManager,
	history *storage.HistoryStore,
	samples *storage.SampleStore,
	live *livedata.Client,
	m *metrics.Metrics,
) *Server {
	s := &Server{
		predictor: predictor,
		explainer: explainer,
		manager:   manager,
		history:   history,
		samples:   samples,
		live:      live,
		metrics:   m,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", s.handleHome)
	r.Get("/healthz", s.handleHealth)
	r.Get("/model-info", s.handleModelInfo)
	r.Get("/features", s.handleFeatures)
	r.Get("/samples", s.handleSamples)
	r.Get("/history", s.handleHistory)
	r.Post("/predict", s.handlePredict)
	r.Post("/preprocess", s.handlePreprocess)
	r.Post("/explain", s.handleExplain)
	r.Post("/fetch-live-data", s.handleFetchLiveData)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
}

// Handler returns the assembled router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "FinSentinal API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	info := s.manager.Info()
	respondJSON(w, http.StatusOK, map[string]any{
		"version":       info.Version,
		"training_date": info.TrainingDate,
		"data_samples":  info.DataSamples,
		"metrics":       info.Metrics,
		"artifacts":     s.manager.ArtifactFlags(),
	})
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	gen := s.predictor.Generation()
	respondJSON(w, http.StatusOK, map[string]any{"features": gen.FeatureCols})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	pred, err := s.predictor.Predict(features.RecordSource(body))
	if err != nil {
		s.respondMapped(w, err)
		return
	}

	s.appendHistory(storage.PredictionRecord{
		Ts:         time.Now().UTC(),
		FDI:        pred.Probability,
		Risk:       pred.Risk,
		Confidence: pred.Confidence,
		Payload:    body,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"fdi":  pred.Probability,
		"risk": pred.Risk,
	})
}

// appendHistory persists a prediction best-effort. Failures are logged and
// counted, never surfaced to the caller.
func (s *Server) appendHistory(rec storage.PredictionRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(rec); err != nil {
		s.metrics.HistoryWriteFailures.Inc()
		log.Warn().Err(err).Msg("failed to persist prediction record")
	}
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		respondJSON(w, http.StatusOK, map[string]any{"samples": []storage.SampleSummary{}})
		return
	}
	limit := queryLimit(r, defaultHistoryLimit)
	respondJSON(w, http.StatusOK, map[string]any{"samples": s.samples.List(limit)})
}

type preprocessRequest struct {
	SampleID *int           `json:"sample_id"`
	Record   map[string]any `json:"record"`
}

func (s *Server) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	var req preprocessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	var src features.FieldSource
	switch {
	case req.SampleID != nil:
		if s.samples == nil {
			respondError(w, http.StatusNotFound, "sample_id not found", nil)
			return
		}
		row, err := s.samples.Row(*req.SampleID)
		if err != nil {
			s.respondMapped(w, err)
			return
		}
		src = features.RowSource(row)
	case req.Record != nil:
		src = features.RecordSource(req.Record)
	default:
		respondError(w, http.StatusBadRequest, "provide sample_id or record", nil)
		return
	}

	pre, err := s.predictor.Preprocess(src)
	if err != nil {
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"feature_order": pre.FeatureOrder,
		"features":      pre.Features,
		"scaled":        pre.Scaled,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondJSON(w, http.StatusOK, map[string]any{"history": []storage.PredictionRecord{}})
		return
	}
	limit := queryLimit(r, defaultHistoryLimit)
	items, err := s.history.Recent(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read history", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": items})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	exp, err := s.explainer.Explain(features.RecordSource(body))
	if err != nil {
		s.metrics.ExplanationFailures.Inc()
		s.respondMapped(w, err)
		return
	}
	s.metrics.Explanations.Inc()
	respondJSON(w, http.StatusOK, exp)
}

type liveDataRequest struct {
	Company string `json:"company"`
}

func (s *Server) handleFetchLiveData(w http.ResponseWriter, r *http.Request) {
	var req liveDataRequest
	// An empty body picks the default company.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if s.live == nil {
		s.respondMapped(w, ml.ErrLiveDataUnavailable)
		return
	}

	s.metrics.LiveDataFetches.Inc()
	snap, err := s.live.Fetch(r.Context(), req.Company)
	if err != nil {
		s.metrics.LiveDataFailures.Inc()
		s.respondMapped(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    snap,
		"message": fmt.Sprintf("Live data fetched for %s (%s)", snap.Company, snap.Ticker),
	})
}

// respondMapped translates the error taxonomy into HTTP statuses.
func (s *Server) respondMapped(w http.ResponseWriter, err error) {
	var inputErr *ml.InputError
	var notFound *ml.NotFoundError
	var explErr *ml.ExplanationError

	switch {
	case errors.As(err, &inputErr):
		respondError(w, http.StatusBadRequest, inputErr.Msg, nil)
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Name+" not found", nil)
	case errors.Is(err, ml.ErrExplainUnavailable), errors.Is(err, ml.ErrLiveDataUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error(), nil)
	case errors.As(err, &explErr):
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  explErr.Msg,
			"shapes": explErr.Shapes,
		})
	default:
		s.metrics.ErrorsTotal.Inc()
		respondError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func queryLimit(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
