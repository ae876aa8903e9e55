package clinical

import (
	"context"

	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/diseaseforecast/platform/pkg/common/models"
)

// EventPublisher is satisfied by kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

const eventSource = "clinical"

type Service struct {
	store  Store
	events EventPublisher
}

// NewService wires the patient and record operations. events may be nil.
func NewService(store Store, events EventPublisher) *Service {
	return &Service{store: store, events: events}
}

func (s *Service) CreatePatient(ctx context.Context, req PatientCreate) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToModel()
	if err := s.store.CreatePatient(ctx, &p); err != nil {
		logger.Log.WithError(err).Error("failed to create patient")
		return nil, err
	}

	s.publish(ctx, models.EventPatientCreated, map[string]interface{}{
		"patient_id": p.ID,
		"age":        p.Age,
		"gender":     p.Gender,
	})
	return &p, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.store.ListPatients(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id uint) (*Patient, error) {
	return s.store.GetPatient(ctx, id)
}

func (s *Service) CreateRecord(ctx context.Context, req RecordCreate) (*ClinicalRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := req.ToModel()
	if err := s.store.CreateRecord(ctx, &rec); err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventRecordCreated, map[string]interface{}{
		"patient_id": rec.PatientID,
		"record_id":  rec.ID,
	})
	return &rec, nil
}

// ListRecords returns an empty slice for unknown patients.
func (s *Service) ListRecords(ctx context.Context, patientID uint) ([]ClinicalRecord, error) {
	return s.store.ListRecords(ctx, patientID)
}

// publish runs after commit; a failed publish is logged and does not undo
// the write.
func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("event publication failed")
	}
}
