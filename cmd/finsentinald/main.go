package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/cfg"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/livedata"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/metrics"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/ml"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/server"
	"github.com/V1shhnuu7/FinSentinal-V3/internal/storage"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	gen, err := ml.LoadGeneration(c.ModelDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", c.ModelDir).Msg("model load failed")
	}
	predictor := ml.NewPredictor(gen, metrics.NewPredictorWrapper(m))
	explainer := ml.NewExplainer(predictor)

	manager, err := ml.NewModelManager(c.ModelDir)
	if err != nil {
		log.Fatal().Err(err).Msg("model manager init failed")
	}
	manager.AttachPublisher(predictor)

	history := initializeHistory(c, m)
	if history != nil {
		defer history.Close()
	}
	samples := initializeSamples(c)

	var live *livedata.Client
	if c.LiveDataURL != "" {
		live = livedata.New(c.LiveDataURL, c.LiveDataTimeout)
	} else {
		log.Info().Msg("no quote API configured, live data endpoint disabled")
	}

	srv := server.New(predictor, explainer, manager, history, samples, live, m)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.ListenPort),
		Handler: srv.Handler(),
	}

	go func() {
		log.Info().
			Int("port", c.ListenPort).
			Str("version", manager.CurrentVersion()).
			Int("features", len(gen.FeatureCols)).
			Bool("explainable", explainer.Available()).
			Msg("serving")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func initializeHistory(c cfg.Settings, m *metrics.Metrics) *storage.HistoryStore {
	if c.DataPath == "" {
		log.Info().Msg("no data path configured, prediction history disabled")
		return nil
	}
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Msg("failed to create data path, prediction history disabled")
		return nil
	}
	history, err := storage.NewHistoryStore(c.DataPath)
	if err != nil {
		m.HistoryWriteFailures.Inc()
		log.Warn().Err(err).Msg("failed to open history store, prediction history disabled")
		return nil
	}
	return history
}

func initializeSamples(c cfg.Settings) *storage.SampleStore {
	samples, err := storage.NewSampleStore(c.SamplesCSV)
	if err != nil {
		log.Warn().Err(err).Str("path", c.SamplesCSV).Msg("failed to load samples, sample endpoints disabled")
		return nil
	}
	return samples
}
