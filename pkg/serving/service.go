package serving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/diseaseforecast/platform/pkg/common/models"
	"github.com/diseaseforecast/platform/pkg/observability/metrics"
	"github.com/diseaseforecast/platform/pkg/serving/features"
	"github.com/diseaseforecast/platform/pkg/serving/predictor"
	"github.com/diseaseforecast/platform/pkg/serving/risk"
	"gorm.io/datatypes"
)

// ErrInference covers a loaded model rejecting an input or returning a
// non-finite score.
var ErrInference = errors.New("model inference failed")

const eventSource = "serving"

// Service runs the prediction pipeline. The model is shared read-only across
// requests; every call gets its own store transaction.
type Service struct {
	store  clinical.Store
	model  predictor.Model
	events clinical.EventPublisher
	now    func() time.Time
}

func NewService(store clinical.Store, model predictor.Model, events clinical.EventPublisher) *Service {
	return &Service{
		store:  store,
		model:  model,
		events: events,
		now:    time.Now,
	}
}

type Result struct {
	PredictionID   uint       `json:"prediction_id"`
	PatientID      uint       `json:"patient_id"`
	RecordID       uint       `json:"record_id"`
	PredictedScore float64    `json:"predicted_score"`
	RiskLevel      risk.Level `json:"risk_level"`
	ModelName      string     `json:"model_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type TrendPoint struct {
	PredictionID   uint      `json:"prediction_id"`
	CreatedAt      time.Time `json:"created_at"`
	PredictedScore float64   `json:"predicted_score"`
	RiskLevel      string    `json:"risk_level"`
}

// RunPrediction scores the patient's latest clinical record and appends a
// prediction. It is not idempotent: every successful call adds a row.
func (s *Service) RunPrediction(ctx context.Context, patientID uint) (*Result, error) {
	start := s.now()
	var (
		pred      clinical.Prediction
		inference time.Duration
	)

	err := s.store.Transaction(ctx, func(tx clinical.Store) error {
		if _, err := tx.GetPatient(ctx, patientID); err != nil {
			return err
		}
		record, err := tx.LatestRecord(ctx, patientID)
		if err != nil {
			return err
		}

		vector := features.Adapt(record.Measurements)
		inferStart := s.now()
		score, err := s.model.Predict(vector)
		inference = s.now().Sub(inferStart)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInference, err)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return fmt.Errorf("%w: non-finite score %v", ErrInference, score)
		}

		pred = clinical.Prediction{
			PatientID:      patientID,
			RecordID:       record.ID,
			PredictedScore: score,
			RiskLevel:      risk.Classify(score).String(),
			ModelName:      s.model.Info().Name,
			Inputs:         datatypes.JSONMap(features.Snapshot(vector)),
		}
		return tx.CreatePrediction(ctx, &pred)
	})
	if err != nil {
		metrics.RecordPredictionFailure(failureReason(err))
		logger.Log.WithError(err).WithField("patient_id", patientID).Warn("prediction failed")
		return nil, err
	}

	metrics.RecordPrediction(pred.RiskLevel, pred.PredictedScore, inference)
	logger.Log.WithFields(map[string]interface{}{
		"patient_id":    patientID,
		"prediction_id": pred.ID,
		"record_id":     pred.RecordID,
		"risk_level":    pred.RiskLevel,
		"latency_ms":    s.now().Sub(start).Milliseconds(),
	}).Info("Prediction completed")

	s.publish(ctx, map[string]interface{}{
		"patient_id":      patientID,
		"prediction_id":   pred.ID,
		"record_id":       pred.RecordID,
		"predicted_score": pred.PredictedScore,
		"risk_level":      pred.RiskLevel,
	})

	return &Result{
		PredictionID:   pred.ID,
		PatientID:      pred.PatientID,
		RecordID:       pred.RecordID,
		PredictedScore: pred.PredictedScore,
		RiskLevel:      risk.Level(pred.RiskLevel),
		ModelName:      pred.ModelName,
		CreatedAt:      pred.CreatedAt,
	}, nil
}

// History lists predictions newest first. Unknown patients yield an empty
// slice rather than an error.
func (s *Service) History(ctx context.Context, patientID uint) ([]clinical.Prediction, error) {
	preds, err := s.store.ListPredictions(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if preds == nil {
		preds = []clinical.Prediction{}
	}
	return preds, nil
}

// Trend returns the chart series for a patient, oldest first.
func (s *Service) Trend(ctx context.Context, patientID uint) ([]TrendPoint, error) {
	preds, err := s.History(ctx, patientID)
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, 0, len(preds))
	for _, p := range preds {
		points = append(points, TrendPoint{
			PredictionID:   p.ID,
			CreatedAt:      p.CreatedAt,
			PredictedScore: p.PredictedScore,
			RiskLevel:      p.RiskLevel,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].CreatedAt.Equal(points[j].CreatedAt) {
			return points[i].PredictionID < points[j].PredictionID
		}
		return points[i].CreatedAt.Before(points[j].CreatedAt)
	})
	return points, nil
}

func (s *Service) ModelInfo() predictor.Info {
	return s.model.Info()
}

func (s *Service) publish(ctx context.Context, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, models.EventPredictionCompleted, eventSource, data); err != nil {
		logger.Log.WithError(err).Warn("event publication failed")
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, clinical.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInference), errors.Is(err, predictor.ErrModelUnavailable):
		return "model"
	default:
		return "store"
	}
}
