package training

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/diseaseforecast/platform/pkg/ml/gbr"
	"github.com/diseaseforecast/platform/pkg/serving/features"
	"github.com/diseaseforecast/platform/pkg/serving/predictor"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTestSize = 0.2
	DefaultSeed     = 42
)

type Options struct {
	DataPath   string
	OutputPath string
	// ParamsPath optionally names a YAML file overriding gbr.DefaultParams.
	ParamsPath string
	ModelName  string
	TestSize   float64
	Seed       int64
}

type Report struct {
	RunID        string             `json:"run_id"`
	ArtifactPath string             `json:"artifact_path"`
	ArtifactSize int                `json:"artifact_size"`
	TrainRows    int                `json:"train_rows"`
	TestRows     int                `json:"test_rows"`
	Metrics      map[string]float64 `json:"metrics"`
	Duration     time.Duration      `json:"duration"`
}

// LoadParams reads hyperparameters from YAML. Keys that are absent keep their
// defaults.
func LoadParams(path string) (gbr.Params, error) {
	params := gbr.DefaultParams()
	if path == "" {
		return params, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return params, err
	}
	if err := yaml.Unmarshal(content, &params); err != nil {
		return params, fmt.Errorf("parsing %s: %w", path, err)
	}
	return params, nil
}

// Run loads the dataset, fits on the training split, scores the held-out
// split and writes a JSON artifact that predictor.Load can serve.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.DataPath == "" || opts.OutputPath == "" {
		return nil, errors.New("data path and output path are required")
	}
	if opts.TestSize == 0 {
		opts.TestSize = DefaultTestSize
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.ModelName == "" {
		opts.ModelName = "progression-gbr"
	}

	runID := uuid.New().String()
	start := time.Now()
	log := logger.Log.WithField("run_id", runID)

	params, err := LoadParams(opts.ParamsPath)
	if err != nil {
		return nil, err
	}
	ds, err := LoadCSV(opts.DataPath)
	if err != nil {
		return nil, err
	}
	trainIdx, testIdx, err := Split(ds.Len(), opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"rows":     ds.Len(),
		"features": ds.Width(),
		"train":    len(trainIdx),
		"test":     len(testIdx),
	}).Info("Training gradient boosting model")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainX, trainY := ds.Subset(trainIdx)
	model, err := gbr.Fit(trainX, trainY, params)
	if err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}

	testX, testY := ds.Subset(testIdx)
	predicted := make([]float64, len(testX))
	for i, x := range testX {
		if predicted[i], err = model.Predict(x); err != nil {
			return nil, err
		}
	}
	metrics := map[string]float64{
		"r2":  R2(testY, predicted),
		"mae": MAE(testY, predicted),
	}

	artifact := predictor.Artifact{
		Name:         opts.ModelName,
		Type:         predictor.TypeGradientBoosting,
		FeatureNames: featureNames(ds),
		TrainedAt:    time.Now().UTC(),
		Metrics:      metrics,
		Params:       params,
		Model:        model,
	}
	size, err := predictor.WriteArtifact(opts.OutputPath, artifact)
	if err != nil {
		return nil, fmt.Errorf("writing artifact: %w", err)
	}

	report := &Report{
		RunID:        runID,
		ArtifactPath: opts.OutputPath,
		ArtifactSize: size,
		TrainRows:    len(trainIdx),
		TestRows:     len(testIdx),
		Metrics:      metrics,
		Duration:     time.Since(start),
	}
	log.WithFields(map[string]interface{}{
		"r2":       metrics["r2"],
		"mae":      metrics["mae"],
		"artifact": opts.OutputPath,
		"size":     humanize.Bytes(uint64(size)),
		"duration": report.Duration.String(),
	}).Info("Model artifact written")
	return report, nil
}

func featureNames(ds *Dataset) []string {
	if len(ds.FeatureNames) == ds.Width() {
		return ds.FeatureNames
	}
	if ds.Width() == features.Width {
		return append([]string(nil), features.Names...)
	}
	return nil
}
