package ml

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/features"
)

const archiveDirName = "archive"

// Publisher receives a fully prepared generation for serving. Implemented by
// Predictor; nil when the lifecycle runs without a serving process.
type Publisher interface {
	Publish(*Generation)
}

// VersionInfo is one archive entry as reported by ListVersions.
type VersionInfo struct {
	Name         string `json:"name"`
	TrainingDate string `json:"training_date,omitempty"`
}

// CurrentInfo is the inspection view of the active generation.
type CurrentInfo struct {
	Version      string       `json:"version"`
	TrainingDate string       `json:"training_date,omitempty"`
	DataSamples  int          `json:"data_samples,omitempty"`
	Metrics      ModelMetrics `json:"metrics"`
	Summary      string       `json:"summary"`
}

// ModelManager owns the model generation lifecycle: one mutable active slot
// plus an append-only archive of timestamped past generations. Lifecycle
// operations are mutually exclusive; serving is never blocked because the
// swap is a single atomic publish after all artifacts are prepared.
type ModelManager struct {
	mu         sync.Mutex
	modelDir   string
	archiveDir string
	forestCfg  ForestConfig
	publisher  Publisher
}

// NewModelManager creates a manager over modelDir, ensuring the archive
// directory exists.
func NewModelManager(modelDir string) (*ModelManager, error) {
	archiveDir := filepath.Join(modelDir, archiveDirName)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &ModelManager{
		modelDir:   modelDir,
		archiveDir: archiveDir,
		forestCfg:  DefaultForestConfig(),
	}, nil
}

// AttachPublisher wires a serving predictor so retrain/restore swap the live
// generation once the new artifacts are fully committed.
func (mm *ModelManager) AttachPublisher(p Publisher) {
	mm.mu.Lock()
	mm.publisher = p
	mm.mu.Unlock()
}

// CurrentVersion reads the active generation's version. An absent metadata
// file falls back to the built-in default, logged but not an error.
func (mm *ModelManager) CurrentVersion() string {
	path := filepath.Join(mm.modelDir, metadataFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn().Str("path", path).Msg("model metadata missing, using default version")
		return defaultMetadata().Version
	}
	meta, err := loadMetadata(path)
	if err != nil {
		log.Warn().Err(err).Msg("model metadata unreadable, using default version")
		return defaultMetadata().Version
	}
	return meta.Version
}

// ArchiveCurrent snapshots the active artifact set into a new, uniquely
// named archive entry and returns the entry name. Artifacts that do not
// exist yet (fresh install) are simply skipped.
func (mm *ModelManager) ArchiveCurrent() (string, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.archiveCurrentLocked()
}

func (mm *ModelManager) archiveCurrentLocked() (string, error) {
	version := mm.currentVersionLocked()
	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("model_v%s_%s", version, stamp)

	// Never overwrite an existing entry, even within the same second.
	entry := filepath.Join(mm.archiveDir, name)
	for i := 2; ; i++ {
		if _, err := os.Stat(entry); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("model_v%s_%s-%d", version, stamp, i)
		entry = filepath.Join(mm.archiveDir, name)
	}
	if err := os.MkdirAll(entry, 0o755); err != nil {
		return "", fmt.Errorf("create archive entry: %w", err)
	}

	for _, artifact := range []string{modelFile, scalerFile, featureColsFile} {
		src := filepath.Join(mm.modelDir, artifact)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, filepath.Join(entry, artifact)); err != nil {
			return "", fmt.Errorf("archive %s: %w", artifact, err)
		}
	}
	metaSrc := filepath.Join(mm.modelDir, metadataFile)
	if _, err := os.Stat(metaSrc); err == nil {
		if err := copyFile(metaSrc, filepath.Join(entry, archiveMetaFile)); err != nil {
			return "", fmt.Errorf("archive metadata: %w", err)
		}
	}

	log.Info().Str("entry", name).Msg("model generation archived")
	return name, nil
}

func (mm *ModelManager) currentVersionLocked() string {
	meta, err := loadMetadata(filepath.Join(mm.modelDir, metadataFile))
	if err != nil {
		return defaultMetadata().Version
	}
	return meta.Version
}

// Retrain runs the full training pipeline against csvPath and installs the
// result as the new active generation. The outgoing generation is archived
// before any new artifact is written, so no generation is ever lost. All new
// artifacts are prepared in memory and committed together at the end.
func (mm *ModelManager) Retrain(csvPath string) (*Generation, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	// Validate the dataset before touching any on-disk state, so a missing
	// target column leaves both the active slot and the archive untouched.
	td, err := loadTrainingData(csvPath)
	if err != nil {
		return nil, err
	}

	if _, err := mm.archiveCurrentLocked(); err != nil {
		return nil, fmt.Errorf("archive outgoing generation: %w", err)
	}

	trainIdx, testIdx := trainTestSplit(td.Y)

	trainRaw := make([][]float64, len(trainIdx))
	for k, i := range trainIdx {
		trainRaw[k] = td.X[i]
	}
	scaler, err := features.Fit(trainRaw)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}

	scale := func(idx []int) ([][]float64, error) {
		out := make([][]float64, len(idx))
		for k, i := range idx {
			s, err := scaler.Transform(td.X[i])
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	}
	trainX, err := scale(trainIdx)
	if err != nil {
		return nil, fmt.Errorf("scale train partition: %w", err)
	}
	testX, err := scale(testIdx)
	if err != nil {
		return nil, fmt.Errorf("scale test partition: %w", err)
	}
	trainY := binarize(td.Y, trainIdx)
	testY := binarize(td.Y, testIdx)

	forest, err := FitForest(trainX, trainY, mm.forestCfg)
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	metrics, err := evaluate(forest, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("evaluate classifier: %w", err)
	}
	metrics.TrainSamples = len(trainIdx)

	version := incrementVersion(mm.currentVersionLocked())
	gen := &Generation{
		Model:       forest,
		Scaler:      scaler,
		FeatureCols: td.Cols,
		Meta: Metadata{
			Version:      version,
			TrainingDate: time.Now().UTC().Format(time.RFC3339),
			DataSamples:  len(td.X),
			Metrics:      metrics,
		},
	}
	if err := gen.saveTo(mm.modelDir, metadataFile); err != nil {
		return nil, fmt.Errorf("commit new generation: %w", err)
	}

	if mm.publisher != nil {
		mm.publisher.Publish(gen)
	}

	log.Info().
		Str("version", version).
		Int("features", len(td.Cols)).
		Int("train_samples", metrics.TrainSamples).
		Int("test_samples", metrics.TestSamples).
		Float64("accuracy", metrics.Accuracy).
		Float64("f1", metrics.F1).
		Msg("model retraining complete")
	return gen, nil
}

// Restore replaces the active generation with a named archive entry. The
// current generation is archived first, preserving the
// backup-before-overwrite invariant. An unknown name changes nothing.
func (mm *ModelManager) Restore(versionName string) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	entry := filepath.Join(mm.archiveDir, versionName)
	if info, err := os.Stat(entry); err != nil || !info.IsDir() {
		return &NotFoundError{Name: versionName}
	}

	if _, err := mm.archiveCurrentLocked(); err != nil {
		return fmt.Errorf("archive current generation: %w", err)
	}

	for _, artifact := range []string{modelFile, scalerFile, featureColsFile} {
		src := filepath.Join(entry, artifact)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, filepath.Join(mm.modelDir, artifact)); err != nil {
			return fmt.Errorf("restore %s: %w", artifact, err)
		}
	}
	metaSrc := filepath.Join(entry, archiveMetaFile)
	if _, err := os.Stat(metaSrc); err == nil {
		if err := copyFile(metaSrc, filepath.Join(mm.modelDir, metadataFile)); err != nil {
			return fmt.Errorf("restore metadata: %w", err)
		}
	}

	if mm.publisher != nil {
		gen, err := LoadGeneration(mm.modelDir)
		if err != nil {
			return fmt.Errorf("load restored generation: %w", err)
		}
		mm.publisher.Publish(gen)
	}

	log.Info().Str("version", versionName).Msg("model generation restored")
	return nil
}

// ListVersions re-enumerates the archive and returns entries in
// lexicographic name order with their training dates where recorded.
func (mm *ModelManager) ListVersions() ([]VersionInfo, error) {
	entries, err := os.ReadDir(mm.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	var out []VersionInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info := VersionInfo{Name: e.Name()}
		meta, err := loadMetadata(filepath.Join(mm.archiveDir, e.Name(), archiveMetaFile))
		if err == nil && meta.Notes == "" {
			info.TrainingDate = meta.TrainingDate
		}
		out = append(out, info)
	}
	return out, nil
}

// Info reports the active generation's version, metadata, and a formatted
// metric summary.
func (mm *ModelManager) Info() CurrentInfo {
	meta, err := loadMetadata(filepath.Join(mm.modelDir, metadataFile))
	if err != nil {
		log.Warn().Err(err).Msg("model metadata unreadable, reporting defaults")
		meta = defaultMetadata()
	}
	return CurrentInfo{
		Version:      meta.Version,
		TrainingDate: meta.TrainingDate,
		DataSamples:  meta.DataSamples,
		Metrics:      meta.Metrics,
		Summary: fmt.Sprintf("accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f (train=%d test=%d)",
			meta.Metrics.Accuracy, meta.Metrics.Precision, meta.Metrics.Recall, meta.Metrics.F1,
			meta.Metrics.TrainSamples, meta.Metrics.TestSamples),
	}
}

// ArtifactFlags reports which artifacts of the active generation exist.
func (mm *ModelManager) ArtifactFlags() map[string]bool {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(mm.modelDir, name))
		return err == nil
	}
	return map[string]bool{
		"model":    exists(modelFile),
		"scaler":   exists(scalerFile),
		"features": exists(featureColsFile),
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ModelDir exposes the active artifact directory, for wiring the serving
// process at startup.
func (mm *ModelManager) ModelDir() string { return mm.modelDir }
