package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/ipsentry/internal/features"
)

// Artifacts matching the shipped model: weights/intercept fit on the labeled
// sample set, scaler fit on the same set.
func testArtifacts() (Model, Scaler) {
	model := Model{
		Weights:   []float64{1.5324573638518284, 2.3610793685141886, 0.6162332658121946, 2.3610793685141886, 1.4382082262172542},
		Intercept: 1.648999177666007,
	}
	scaler := Scaler{
		Mean:  []float64{52.5, 0.625, 0.375, 0.625, 0.5},
		Scale: []float64{36.32836357448543, 0.4841229182759271, 0.4841229182759271, 0.4841229182759271, 0.5},
	}
	return model, scaler
}

func TestNew_RejectsWidthMismatch(t *testing.T) {
	model, scaler := testArtifacts()

	badModel := model
	badModel.Weights = []float64{1, 2, 3}
	_, err := New(badModel, scaler)
	assert.Error(t, err)

	badScaler := scaler
	badScaler.Mean = []float64{1, 2}
	_, err = New(model, badScaler)
	assert.Error(t, err)
}

func TestNew_RejectsZeroScale(t *testing.T) {
	model, scaler := testArtifacts()
	scaler.Scale = []float64{34.3, 0.48, 0, 0.48, 0.5}

	_, err := New(model, scaler)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "zero")
}

func TestClassify_HighRiskIsSuspicious(t *testing.T) {
	model, scaler := testArtifacts()
	clf, err := New(model, scaler)
	require.NoError(t, err)

	// High fraud score, VPN and Tor active, recent abuse, bot traffic.
	v := features.Vector{92, 1, 1, 1, 1}
	assert.Equal(t, VerdictSuspicious, clf.Classify(v))
	assert.Greater(t, clf.Probability(v), 0.5)
}

func TestClassify_CleanIPIsSafe(t *testing.T) {
	model, scaler := testArtifacts()
	clf, err := New(model, scaler)
	require.NoError(t, err)

	v := features.Vector{3, 0, 0, 0, 0}
	assert.Equal(t, VerdictSafe, clf.Classify(v))
	assert.Less(t, clf.Probability(v), 0.5)
}

func TestClassify_Deterministic(t *testing.T) {
	model, scaler := testArtifacts()
	clf, err := New(model, scaler)
	require.NoError(t, err)

	v := features.Vector{42, 1, 0, 1, 1}
	first := clf.Classify(v)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, clf.Classify(v))
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	scalerPath := filepath.Join(dir, "scaler.json")

	require.NoError(t, os.WriteFile(modelPath, []byte(
		`{"weights": [1.5324573638518284, 2.3610793685141886, 0.6162332658121946, 2.3610793685141886, 1.4382082262172542], "intercept": 1.648999177666007}`), 0o644))
	require.NoError(t, os.WriteFile(scalerPath, []byte(
		`{"mean": [52.5, 0.625, 0.375, 0.625, 0.5], "scale": [36.32836357448543, 0.4841229182759271, 0.4841229182759271, 0.4841229182759271, 0.5]}`), 0o644))

	clf, err := Load(modelPath, scalerPath)
	require.NoError(t, err)
	assert.Equal(t, VerdictSuspicious, clf.Classify(features.Vector{92, 1, 1, 1, 1}))
}

func TestLoad_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(
		`{"weights": [1.5324573638518284, 2.3610793685141886, 0.6162332658121946, 2.3610793685141886, 1.4382082262172542], "intercept": 1.648999177666007}`), 0o644))

	_, err := Load(modelPath, filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedArtifact(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	scalerPath := filepath.Join(dir, "scaler.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(`{not json`), 0o644))
	require.NoError(t, os.WriteFile(scalerPath, []byte(`{}`), 0o644))

	_, err := Load(modelPath, scalerPath)
	assert.Error(t, err)
}
