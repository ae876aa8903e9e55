package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diseaseforecast/platform/pkg/common/config"
	"github.com/diseaseforecast/platform/pkg/ml/gbr"
	"github.com/diseaseforecast/platform/pkg/serving/features"
)

// ErrModelUnavailable means the artifact could not be loaded; the process
// must not serve predictions without it.
var ErrModelUnavailable = errors.New("model unavailable")

const TypeGradientBoosting = "gradient_boosting_regressor"

// Model is a loaded regression function. Implementations are immutable after
// loading and safe for concurrent use.
type Model interface {
	Predict(features []float64) (float64, error)
	Info() Info
	Close() error
}

type Info struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	Path         string             `json:"path"`
	FeatureNames []string           `json:"feature_names,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	TrainedAt    *time.Time         `json:"trained_at,omitempty"`
}

// Artifact is the on-disk JSON format written by the trainer.
type Artifact struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	FeatureNames []string           `json:"feature_names"`
	TrainedAt    time.Time          `json:"trained_at"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Params       gbr.Params         `json:"params"`
	Model        *gbr.Ensemble      `json:"model"`
}

func (a *Artifact) Validate() error {
	if a.Type != TypeGradientBoosting {
		return fmt.Errorf("unsupported model type %q", a.Type)
	}
	if a.Model == nil {
		return errors.New("artifact missing model")
	}
	if err := a.Model.Validate(); err != nil {
		return err
	}
	if len(a.FeatureNames) != 0 && len(a.FeatureNames) != a.Model.NFeatures {
		return fmt.Errorf("artifact lists %d feature names for a %d-feature model", len(a.FeatureNames), a.Model.NFeatures)
	}
	return nil
}

// Load opens the artifact named by cfg.Path, choosing the backend by file
// extension, and refuses a model that cannot take the serving feature vector.
// Every failure wraps ErrModelUnavailable.
func Load(cfg config.ModelConfig) (Model, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: no model path configured", ErrModelUnavailable)
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	var m Model
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".json":
		ensemble, err := LoadArtifact(cfg.Path)
		if err != nil {
			return nil, err
		}
		m = ensemble
	case ".onnx":
		session, err := LoadONNX(cfg)
		if err != nil {
			return nil, err
		}
		m = session
	default:
		return nil, fmt.Errorf("%w: unsupported artifact extension %q", ErrModelUnavailable, filepath.Ext(cfg.Path))
	}

	if err := checkWidth(m, features.Width); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, cfg.Path, err)
	}
	return m, nil
}

// checkWidth compares the ensemble's declared width directly; other backends
// get one trial prediction on a zero vector.
func checkWidth(m Model, width int) error {
	if ensemble, ok := m.(*EnsembleModel); ok {
		if n := ensemble.artifact.Model.NFeatures; n != width {
			return fmt.Errorf("model expects %d features, serving provides %d", n, width)
		}
		return nil
	}
	if _, err := m.Predict(make([]float64, width)); err != nil {
		return fmt.Errorf("trial prediction with %d features: %w", width, err)
	}
	return nil
}

// EnsembleModel serves a gradient-boosted tree artifact.
type EnsembleModel struct {
	artifact Artifact
	path     string
}

func LoadArtifact(path string) (*EnsembleModel, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrModelUnavailable, path, err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, path, err)
	}
	return &EnsembleModel{artifact: artifact, path: path}, nil
}

func NewEnsembleModel(artifact Artifact) (*EnsembleModel, error) {
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return &EnsembleModel{artifact: artifact}, nil
}

func (m *EnsembleModel) Predict(features []float64) (float64, error) {
	return m.artifact.Model.Predict(features)
}

func (m *EnsembleModel) Info() Info {
	trained := m.artifact.TrainedAt
	info := Info{
		Name:         m.artifact.Name,
		Type:         m.artifact.Type,
		Path:         m.path,
		FeatureNames: append([]string(nil), m.artifact.FeatureNames...),
		Metrics:      make(map[string]float64, len(m.artifact.Metrics)),
	}
	if !trained.IsZero() {
		info.TrainedAt = &trained
	}
	for k, v := range m.artifact.Metrics {
		info.Metrics[k] = v
	}
	return info
}

func (m *EnsembleModel) Close() error {
	return nil
}

func WriteArtifact(path string, artifact Artifact) (int, error) {
	if err := artifact.Validate(); err != nil {
		return 0, err
	}
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return 0, err
	}
	return len(payload), nil
}
