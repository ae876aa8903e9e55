package models

import "time"

// Event is the envelope published on the event bus for every committed write.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.created, record.created, prediction.completed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventPatientCreated      = "patient.created"
	EventRecordCreated       = "record.created"
	EventPredictionCompleted = "prediction.completed"
)
