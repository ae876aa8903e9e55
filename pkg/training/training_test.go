package training

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diseaseforecast/platform/pkg/common/config"
	"github.com/diseaseforecast/platform/pkg/serving/features"
	"github.com/diseaseforecast/platform/pkg/serving/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDataset writes rows whose target depends only on the bmi column.
func writeDataset(t *testing.T, rows int, header bool) string {
	t.Helper()
	var b strings.Builder
	if header {
		b.WriteString(strings.Join(features.Names, ",") + ",target\n")
	}
	for i := 0; i < rows; i++ {
		bmi := -0.1 + 0.2*float64(i)/float64(rows-1)
		target := 150 + 1000*bmi
		fmt.Fprintf(&b, "0.01,-0.02,%.5f,0.02,-0.04,-0.03,-0.04,-0.01,0.01,0.02,%.4f\n", bmi, target)
	}
	path := filepath.Join(t.TempDir(), "diabetes.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestReadCSVDetectsHeader(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a, b, y\n1,2,3\n4,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.FeatureNames)
	assert.Equal(t, [][]float64{{1, 2}, {4, 5}}, ds.Samples)
	assert.Equal(t, []float64{3, 6}, ds.Targets)
	assert.Equal(t, 2, ds.Width())

	ds, err = ReadCSV(strings.NewReader("1,2,3\n"))
	require.NoError(t, err)
	assert.Nil(t, ds.FeatureNames)
	assert.Equal(t, 1, ds.Len())
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	for name, input := range map[string]string{
		"empty":         "",
		"header only":   "a,b\n",
		"ragged":        "1,2,3\n4,5\n",
		"non-numeric":   "1,2,3\n4,x,6\n",
		"single column": "1\n2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	train1, test1, err := Split(100, 0.2, 42)
	require.NoError(t, err)
	train2, test2, err := Split(100, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
	assert.Len(t, test1, 20)
	assert.Len(t, train1, 80)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train1...), test1...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)

	_, other, err := Split(100, 0.2, 7)
	require.NoError(t, err)
	assert.NotEqual(t, test1, other)
}

func TestSplitRejectsBadSizes(t *testing.T) {
	_, _, err := Split(10, 0, 42)
	assert.Error(t, err)
	_, _, err = Split(10, 1, 42)
	assert.Error(t, err)
	_, _, err = Split(1, 0.2, 42)
	assert.Error(t, err)
}

func TestRegressionMetrics(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, R2(actual, actual), 1e-12)
	assert.InDelta(t, 0.0, MAE(actual, actual), 1e-12)

	predicted := []float64{2, 2, 2, 2}
	assert.InDelta(t, 1-6.0/5.0, R2(actual, predicted), 1e-12)
	assert.InDelta(t, 1.0, MAE(actual, predicted), 1e-12)

	assert.True(t, math.IsNaN(MAE(nil, nil)))
	assert.Equal(t, 1.0, R2([]float64{5, 5}, []float64{5, 5}))
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n_estimators: 25\nmax_depth: 2\n"), 0o600))

	params, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 25, params.NEstimators)
	assert.Equal(t, 2, params.MaxDepth)
	assert.Equal(t, 0.1, params.LearningRate)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunWritesServableArtifact(t *testing.T) {
	data := writeDataset(t, 60, true)
	out := filepath.Join(t.TempDir(), "models", "progression.json")

	report, err := Run(context.Background(), Options{DataPath: data, OutputPath: out, ModelName: "test-gbr"})
	require.NoError(t, err)
	assert.Equal(t, 48, report.TrainRows)
	assert.Equal(t, 12, report.TestRows)
	assert.Greater(t, report.ArtifactSize, 0)
	assert.Greater(t, report.Metrics["r2"], 0.9)

	model, err := predictor.Load(config.ModelConfig{Path: out})
	require.NoError(t, err)
	defer model.Close()

	info := model.Info()
	assert.Equal(t, "test-gbr", info.Name)
	assert.Equal(t, predictor.TypeGradientBoosting, info.Type)
	assert.Equal(t, features.Names, info.FeatureNames)
	require.NotNil(t, info.TrainedAt)

	low, err := model.Predict([]float64{0, 0, -0.08, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	high, err := model.Predict([]float64{0, 0, 0.08, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Less(t, low, 120.0)
	assert.GreaterOrEqual(t, high, 200.0)
}

func TestRunHeaderlessUsesServingFeatureNames(t *testing.T) {
	data := writeDataset(t, 30, false)
	out := filepath.Join(t.TempDir(), "model.json")
	params := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(params, []byte("n_estimators: 10\n"), 0o600))

	_, err := Run(context.Background(), Options{DataPath: data, OutputPath: out, ParamsPath: params})
	require.NoError(t, err)

	model, err := predictor.LoadArtifact(out)
	require.NoError(t, err)
	assert.Equal(t, features.Names, model.Info().FeatureNames)
	assert.Equal(t, "progression-gbr", model.Info().Name)
}

func TestRunRequiresPaths(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Options{DataPath: writeDataset(t, 20, true), OutputPath: filepath.Join(t.TempDir(), "m.json")})
	assert.ErrorIs(t, err, context.Canceled)
}
