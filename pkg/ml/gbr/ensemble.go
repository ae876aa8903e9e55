package gbr

import (
	"errors"
	"fmt"
)

type Params struct {
	NEstimators     int     `json:"n_estimators" yaml:"n_estimators"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth        int     `json:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf" yaml:"min_samples_leaf"`
}

func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NEstimators <= 0 {
		p.NEstimators = d.NEstimators
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = d.MinSamplesSplit
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	return p
}

// Ensemble is a least-squares gradient-boosted regressor:
// f(x) = Init + LearningRate * sum(tree_i(x)).
type Ensemble struct {
	Init         float64 `json:"init"`
	LearningRate float64 `json:"learning_rate"`
	NFeatures    int     `json:"n_features"`
	Trees        []Tree  `json:"trees"`
}

var ErrFeatureCount = errors.New("feature count mismatch")

func (e *Ensemble) Predict(x []float64) (float64, error) {
	if len(x) != e.NFeatures {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrFeatureCount, e.NFeatures, len(x))
	}
	sum := e.Init
	for _, t := range e.Trees {
		sum += e.LearningRate * t.Predict(x)
	}
	return sum, nil
}

// Validate checks structural soundness so Predict can never index out of
// range on a loaded artifact.
func (e *Ensemble) Validate() error {
	if e.NFeatures <= 0 {
		return errors.New("ensemble declares no features")
	}
	if len(e.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	for i, t := range e.Trees {
		if err := t.validate(e.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func Fit(samples [][]float64, targets []float64, params Params) (*Ensemble, error) {
	if len(samples) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(samples) != len(targets) {
		return nil, fmt.Errorf("%d samples but %d targets", len(samples), len(targets))
	}
	width := len(samples[0])
	if width == 0 {
		return nil, errors.New("samples have no features")
	}
	for i, s := range samples {
		if len(s) != width {
			return nil, fmt.Errorf("sample %d: %w: expected %d, got %d", i, ErrFeatureCount, width, len(s))
		}
	}
	params = params.withDefaults()

	var init float64
	for _, y := range targets {
		init += y
	}
	init /= float64(len(targets))

	current := make([]float64, len(targets))
	for i := range current {
		current[i] = init
	}

	ens := &Ensemble{
		Init:         init,
		LearningRate: params.LearningRate,
		NFeatures:    width,
		Trees:        make([]Tree, 0, params.NEstimators),
	}

	residuals := make([]float64, len(targets))
	for m := 0; m < params.NEstimators; m++ {
		for i := range targets {
			residuals[i] = targets[i] - current[i]
		}
		tree := buildTree(samples, residuals, params)
		ens.Trees = append(ens.Trees, tree)
		for i, s := range samples {
			current[i] += params.LearningRate * tree.Predict(s)
		}
	}
	return ens, nil
}
