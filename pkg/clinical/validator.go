package clinical

import (
	"math"
	"strings"
)

const (
	MinAge = 1
	MaxAge = 120
)

// PatientCreate is the inbound shape for a new patient. Pointer fields let
// validation tell a missing value from a zero one. Gender is free text and may
// be empty.
type PatientCreate struct {
	Name   string `json:"name"`
	Age    *int   `json:"age"`
	Gender string `json:"gender"`
}

func (p PatientCreate) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name is required")
	}
	if p.Age == nil {
		return invalid("age is required")
	}
	if *p.Age < MinAge || *p.Age > MaxAge {
		return invalid("age must be between %d and %d, got %d", MinAge, MaxAge, *p.Age)
	}
	return nil
}

func (p PatientCreate) ToModel() Patient {
	return Patient{
		Name:   strings.TrimSpace(p.Name),
		Age:    *p.Age,
		Gender: strings.TrimSpace(p.Gender),
	}
}

// RecordCreate only checks shape. Whether patient_id names a real patient
// (including 0) is the store's call, so it surfaces as ErrPatientNotFound.
type RecordCreate struct {
	PatientID *uint    `json:"patient_id"`
	BMI       *float64 `json:"bmi"`
	BP        *float64 `json:"bp"`
	S1        *float64 `json:"s1"`
	S2        *float64 `json:"s2"`
	S3        *float64 `json:"s3"`
	S4        *float64 `json:"s4"`
	S5        *float64 `json:"s5"`
	S6        *float64 `json:"s6"`
}

func (r RecordCreate) Validate() error {
	if r.PatientID == nil {
		return invalid("patient_id is required")
	}
	fields := []struct {
		name  string
		value *float64
	}{
		{"bmi", r.BMI}, {"bp", r.BP},
		{"s1", r.S1}, {"s2", r.S2}, {"s3", r.S3},
		{"s4", r.S4}, {"s5", r.S5}, {"s6", r.S6},
	}
	for _, f := range fields {
		if f.value == nil {
			return invalid("%s is required", f.name)
		}
		if math.IsNaN(*f.value) || math.IsInf(*f.value, 0) {
			return invalid("%s must be a finite number", f.name)
		}
	}
	return nil
}

func (r RecordCreate) ToModel() ClinicalRecord {
	return ClinicalRecord{
		PatientID: *r.PatientID,
		Measurements: Measurements{
			BMI: *r.BMI, BP: *r.BP,
			S1: *r.S1, S2: *r.S2, S3: *r.S3,
			S4: *r.S4, S5: *r.S5, S6: *r.S6,
		},
	}
}
