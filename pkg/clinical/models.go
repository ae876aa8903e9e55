package clinical

import (
	"time"

	"gorm.io/datatypes"
)

type Patient struct {
	ID        uint      `json:"id" gorm:"primaryKey;column:id"`
	Name      string    `json:"name" gorm:"column:name;size:100;not null"`
	Age       int       `json:"age" gorm:"column:age;not null"`
	Gender    string    `json:"gender" gorm:"column:gender;size:20;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Patient) TableName() string {
	return "patients"
}

// Measurements are the eight model inputs captured per clinical record, in
// the order the model consumes them.
type Measurements struct {
	BMI float64 `json:"bmi" gorm:"column:bmi;not null"`
	BP  float64 `json:"bp" gorm:"column:bp;not null"`
	S1  float64 `json:"s1" gorm:"column:s1;not null"`
	S2  float64 `json:"s2" gorm:"column:s2;not null"`
	S3  float64 `json:"s3" gorm:"column:s3;not null"`
	S4  float64 `json:"s4" gorm:"column:s4;not null"`
	S5  float64 `json:"s5" gorm:"column:s5;not null"`
	S6  float64 `json:"s6" gorm:"column:s6;not null"`
}

type ClinicalRecord struct {
	ID           uint `json:"id" gorm:"primaryKey;column:id"`
	PatientID    uint `json:"patient_id" gorm:"column:patient_id;not null;index"`
	Measurements `gorm:"embedded"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`

	Patient *Patient `json:"-" gorm:"foreignKey:PatientID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

func (ClinicalRecord) TableName() string {
	return "clinical_records"
}

// Prediction is append-only; RiskLevel is fixed at write time and never
// recomputed.
type Prediction struct {
	ID             uint              `json:"id" gorm:"primaryKey;column:id"`
	PatientID      uint              `json:"patient_id" gorm:"column:patient_id;not null;index"`
	RecordID       uint              `json:"record_id" gorm:"column:record_id"`
	PredictedScore float64           `json:"predicted_score" gorm:"column:predicted_score;not null"`
	RiskLevel      string            `json:"risk_level" gorm:"column:risk_level;size:20;not null"`
	ModelName      string            `json:"model_name,omitempty" gorm:"column:model_name;size:100"`
	Inputs         datatypes.JSONMap `json:"inputs,omitempty" gorm:"column:inputs"`
	CreatedAt      time.Time         `json:"created_at" gorm:"column:created_at;autoCreateTime"`

	Patient *Patient `json:"-" gorm:"foreignKey:PatientID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

func (Prediction) TableName() string {
	return "predictions"
}

// Summary is the dashboard aggregate computed server-side in one call.
type Summary struct {
	TotalPatients     int64              `json:"total_patients"`
	TotalRecords      int64              `json:"total_records"`
	TotalPredictions  int64              `json:"total_predictions"`
	RiskDistribution  map[string]int64   `json:"risk_distribution"`
	RecentPredictions []RecentPrediction `json:"recent_predictions"`
}

type RecentPrediction struct {
	ID             uint      `json:"id" gorm:"column:id"`
	PatientID      uint      `json:"patient_id" gorm:"column:patient_id"`
	PatientName    string    `json:"patient_name" gorm:"column:patient_name"`
	PredictedScore float64   `json:"predicted_score" gorm:"column:predicted_score"`
	RiskLevel      string    `json:"risk_level" gorm:"column:risk_level"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
}
