package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
)

// Artifact filenames of the active generation. An archive entry holds the
// same three artifacts plus metadata.json.
const (
	modelFile       = "model.json"
	scalerFile      = "scaler.json"
	featureColsFile = "feature_cols.json"
	metadataFile    = "model_metadata.json"
	archiveMetaFile = "metadata.json"
)

// ModelMetrics is the evaluation summary recorded at training time.
type ModelMetrics struct {
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// Metadata describes one model generation.
type Metadata struct {
	Version      string       `json:"version"`
	TrainingDate string       `json:"training_date,omitempty"`
	DataSamples  int          `json:"data_samples,omitempty"`
	Metrics      ModelMetrics `json:"metrics"`
	Notes        string       `json:"notes,omitempty"`
}

// defaultMetadata is served when the metadata artifact is absent. Non-fatal;
// callers log and continue.
func defaultMetadata() Metadata {
	return Metadata{
		Version: "1.0",
		Metrics: ModelMetrics{
			Accuracy:     0.91,
			Precision:    0.88,
			Recall:       0.93,
			F1:           0.90,
			TrainSamples: 1200,
			TestSamples:  300,
		},
		Notes: "Metadata file missing; returning defaults.",
	}
}

// Generation is one immutable {classifier, scaler, feature list, metadata}
// bundle. All four belong to the same training run and are only ever swapped
// together.
type Generation struct {
	Model       *Forest
	Scaler      *features.Scaler
	FeatureCols []string
	Meta        Metadata
}

// LoadGeneration reads the active artifact set from dir. A missing metadata
// file degrades to defaults; missing model/scaler/feature artifacts are
// errors since serving cannot proceed without them.
func LoadGeneration(dir string) (*Generation, error) {
	g := &Generation{}

	if err := readJSON(filepath.Join(dir, modelFile), &g.Model); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if err := readJSON(filepath.Join(dir, scalerFile), &g.Scaler); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	if err := readJSON(filepath.Join(dir, featureColsFile), &g.FeatureCols); err != nil {
		return nil, fmt.Errorf("load feature columns: %w", err)
	}

	meta, err := loadMetadata(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}
	g.Meta = meta

	if g.Model.NumFeatures != len(g.FeatureCols) || g.Scaler.Len() != len(g.FeatureCols) {
		return nil, fmt.Errorf("inconsistent generation: model=%d scaler=%d features=%d",
			g.Model.NumFeatures, g.Scaler.Len(), len(g.FeatureCols))
	}
	return g, nil
}

// saveTo writes the full artifact set into dir. The caller is responsible
// for the archive-before-overwrite ordering.
func (g *Generation) saveTo(dir string, metaName string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, modelFile), g.Model); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, scalerFile), g.Scaler); err != nil {
		return fmt.Errorf("write scaler: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, featureColsFile), g.FeatureCols); err != nil {
		return fmt.Errorf("write feature columns: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, metaName), g.Meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func loadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultMetadata(), nil
		}
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	if meta.Version == "" {
		meta.Version = defaultMetadata().Version
	}
	return meta, nil
}

// incrementVersion bumps the patch component of a dotted version string.
func incrementVersion(version string) string {
	parts := strings.Split(version, ".")
	patch, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		patch = 0
	}
	parts[len(parts)-1] = strconv.Itoa(patch + 1)
	return strings.Join(parts, ".")
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
