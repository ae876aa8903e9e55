package predictor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diseaseforecast/platform/pkg/common/config"
	"github.com/diseaseforecast/platform/pkg/ml/gbr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitOnBMI scores 100 below bmi 0.05 and 210 above it.
func splitOnBMI() Artifact {
	return Artifact{
		Name:         "test-progression",
		Type:         TypeGradientBoosting,
		FeatureNames: []string{"age", "sex", "bmi", "bp", "s1", "s2", "s3", "s4", "s5", "s6"},
		TrainedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Metrics:      map[string]float64{"r2": 0.45, "mae": 44.1},
		Params:       gbr.DefaultParams(),
		Model: &gbr.Ensemble{
			Init:         150,
			LearningRate: 1,
			NFeatures:    10,
			Trees: []gbr.Tree{{Nodes: []gbr.Node{
				{Feature: 2, Threshold: 0.05, Left: 1, Right: 2},
				{Left: -1, Right: -1, Value: -50},
				{Left: -1, Right: -1, Value: 60},
			}}},
		},
	}
}

func TestLoadArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "progression.json")
	n, err := WriteArtifact(path, splitOnBMI())
	require.NoError(t, err)
	assert.Positive(t, n)

	model, err := Load(config.ModelConfig{Path: path})
	require.NoError(t, err)
	defer model.Close()

	low, err := model.Predict([]float64{0, 0, 0.04, 0.02, -0.04, -0.03, -0.04, -0.01, 0.01, 0.02})
	require.NoError(t, err)
	assert.Equal(t, 100.0, low)

	high, err := model.Predict([]float64{0, 0, 0.09, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 210.0, high)

	info := model.Info()
	assert.Equal(t, "test-progression", info.Name)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, 0.45, info.Metrics["r2"])
	require.NotNil(t, info.TrainedAt)
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(config.ModelConfig{Path: filepath.Join(t.TempDir(), "nope.json")})
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = Load(config.ModelConfig{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(config.ModelConfig{Path: path})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadRejectsArtifactOfWrongWidth(t *testing.T) {
	artifact := splitOnBMI()
	artifact.FeatureNames = artifact.FeatureNames[:9]
	artifact.Model.NFeatures = 9

	path := filepath.Join(t.TempDir(), "nine.json")
	_, err := WriteArtifact(path, artifact)
	require.NoError(t, err)

	// The artifact itself is well formed; only the serving width is wrong.
	_, err = LoadArtifact(path)
	require.NoError(t, err)

	model, err := Load(config.ModelConfig{Path: path})
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "expects 9 features")
	assert.Nil(t, model)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pkl")
	require.NoError(t, os.WriteFile(path, []byte("pickle"), 0o644))

	_, err := Load(config.ModelConfig{Path: path})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestArtifactValidate(t *testing.T) {
	a := splitOnBMI()
	a.Type = "random_forest"
	assert.Error(t, a.Validate())

	b := splitOnBMI()
	b.FeatureNames = []string{"bmi"}
	assert.Error(t, b.Validate())

	c := splitOnBMI()
	c.Model = nil
	assert.Error(t, c.Validate())

	_, err := NewEnsembleModel(c)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestEnsembleModelRejectsWrongWidth(t *testing.T) {
	model, err := NewEnsembleModel(splitOnBMI())
	require.NoError(t, err)

	_, err = model.Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, gbr.ErrFeatureCount)
}

func TestONNXModel(t *testing.T) {
	path := os.Getenv("FORECAST_TEST_ONNX_MODEL")
	if path == "" {
		t.Skip("FORECAST_TEST_ONNX_MODEL not set")
	}

	model, err := Load(config.ModelConfig{
		Path:        path,
		ONNXLibrary: os.Getenv("FORECAST_TEST_ONNX_LIBRARY"),
		ONNXInput:   "float_input",
		ONNXOutput:  "variable",
	})
	require.NoError(t, err)
	defer model.Close()

	score, err := model.Predict([]float64{0, 0, 0.04, 0.02, -0.04, -0.03, -0.04, -0.01, 0.01, 0.02})
	require.NoError(t, err)
	assert.False(t, score != score, "score must not be NaN")
}
