package ml

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelManager_RetrainProducesServableGeneration(t *testing.T) {
	dir := t.TempDir()
	csv := writeTrainingCSV(t, dir)

	mm, err := NewModelManager(filepath.Join(dir, "model"))
	require.NoError(t, err)

	gen, err := mm.Retrain(csv)
	require.NoError(t, err)

	assert.Equal(t, "1.1", gen.Meta.Version, "default 1.0 bumps to 1.1")
	assert.Equal(t, []string{"leverage", "liquidity"}, gen.FeatureCols)
	assert.Greater(t, gen.Meta.Metrics.Accuracy, 0.9, "separable data should score high")
	assert.Equal(t, 40, gen.Meta.DataSamples)

	// The committed artifacts load back as a consistent generation.
	loaded, err := LoadGeneration(mm.ModelDir())
	require.NoError(t, err)
	assert.Equal(t, "1.1", loaded.Meta.Version)

	flags := mm.ArtifactFlags()
	assert.True(t, flags["model"])
	assert.True(t, flags["scaler"])
	assert.True(t, flags["features"])
}

func TestModelManager_RetrainArchivesOutgoing(t *testing.T) {
	dir := t.TempDir()
	csv := writeTrainingCSV(t, dir)

	mm, err := NewModelManager(filepath.Join(dir, "model"))
	require.NoError(t, err)

	_, err = mm.Retrain(csv)
	require.NoError(t, err)
	versions, err := mm.ListVersions()
	require.NoError(t, err)
	require.Len(t, versions, 1, "first retrain archives the (empty) outgoing slot")

	_, err = mm.Retrain(csv)
	require.NoError(t, err)
	versions, err = mm.ListVersions()
	require.NoError(t, err)
	require.Len(t, versions, 2)

	assert.Contains(t, versions[1].Name, "model_v1.1_", "second archive snapshots version 1.1")
	assert.Equal(t, "1.2", mm.CurrentVersion())
}

func TestModelManager_RetrainBadDatasetLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	csv := writeTrainingCSV(t, dir)

	mm, err := NewModelManager(filepath.Join(dir, "model"))
	require.NoError(t, err)
	_, err = mm.Retrain(csv)
	require.NoError(t, err)

	before, err := mm.ListVersions()
	require.NoError(t, err)
	version := mm.CurrentVersion()

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\n1,2\n"), 0o600))

	_, err = mm.Retrain(bad)
	var dataErr *DataError
	require.True(t, errors.As(err, &dataErr), "expected DataError, got %v", err)

	after, err := mm.ListVersions()
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after), "failed retrain must not add archive entries")
	assert.Equal(t, version, mm.CurrentVersion(), "failed retrain must not change the active version")
}

func TestModelManager_RestoreUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	mm, err := NewModelManager(filepath.Join(dir, "model"))
	require.NoError(t, err)

	err = mm.Restore("model_v9.9_20200101_000000")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound), "expected NotFoundError, got %v", err)

	versions, err := mm.ListVersions()
	require.NoError(t, err)
	assert.Empty(t, versions, "failed restore must not archive anything")
}

func TestModelManager_RestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csv := writeTrainingCSV(t, dir)

	mm, err := NewModelManager(filepath.Join(dir, "model"))
	require.NoError(t, err)

	_, err = mm.Retrain(csv)
	require.NoError(t, err)
	_, err = mm.Retrain(csv)
	require.NoError(t, err)
	require.Equal(t, "1.2", mm.CurrentVersion())

	// Find the archive entry holding version 1.1.
	versions, err := mm.ListVersions()
	require.NoError(t, err)
	var entry string
	for _, v := range versions {
		if strings.HasPrefix(v.Name, "model_v1.1_") {
			entry = v.Name
		}
	}
	require.NotEmpty(t, entry, "archive should hold a v1.1 entry, got %v", versions)

	require.NoError(t, mm.Restore(entry))
	assert.Equal(t, "1.1", mm.CurrentVersion())

	// The restored artifact set is complete and consistent.
	_, err = LoadGeneration(mm.ModelDir())
	require.NoError(t, err)
}

func TestModelManager_RetrainPublishes(t *testing.T) {
	dir := t.TempDir()
	csv := writeTrainingCSV(t, dir)

	mm, err := NewModelManager(filepath.Join(dir, "model"))
	require.NoError(t, err)

	initial := newTestGeneration(t)
	p := NewPredictor(initial, nil)
	mm.AttachPublisher(p)

	gen, err := mm.Retrain(csv)
	require.NoError(t, err)
	assert.Same(t, gen, p.Generation(), "retrain must publish the new generation")
}

func TestModelManager_CurrentVersionDefault(t *testing.T) {
	mm, err := NewModelManager(filepath.Join(t.TempDir(), "model"))
	require.NoError(t, err)
	assert.Equal(t, "1.0", mm.CurrentVersion())

	info := mm.Info()
	assert.Equal(t, "1.0", info.Version)
	assert.NotEmpty(t, info.Summary)
}
