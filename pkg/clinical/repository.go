package clinical

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is the gorm-backed Store.
type Repository struct {
	db *gorm.DB
}

var _ Store = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Patient{}, &ClinicalRecord{}, &Prediction{})
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx Store) error) error {
	var fnErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&Repository{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storeError("transaction", err)
	}
	return nil
}

func (r *Repository) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = 0
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return storeError("create patient", err)
	}
	return nil
}

func (r *Repository) ListPatients(ctx context.Context) ([]Patient, error) {
	patients := []Patient{}
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&patients).Error; err != nil {
		return nil, storeError("list patients", err)
	}
	return patients, nil
}

func (r *Repository) GetPatient(ctx context.Context, id uint) (*Patient, error) {
	var p Patient
	result := r.db.WithContext(ctx).First(&p, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	if result.Error != nil {
		return nil, storeError("get patient", result.Error)
	}
	return &p, nil
}

func (r *Repository) CreateRecord(ctx context.Context, rec *ClinicalRecord) error {
	return r.Transaction(ctx, func(tx Store) error {
		if _, err := tx.GetPatient(ctx, rec.PatientID); err != nil {
			return err
		}
		repo := tx.(*Repository)
		rec.ID = 0
		if err := repo.db.WithContext(ctx).Omit("Patient").Create(rec).Error; err != nil {
			return storeError("create record", err)
		}
		return nil
	})
}

func (r *Repository) ListRecords(ctx context.Context, patientID uint) ([]ClinicalRecord, error) {
	records := []ClinicalRecord{}
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, storeError("list records", err)
	}
	return records, nil
}

func (r *Repository) LatestRecord(ctx context.Context, patientID uint) (*ClinicalRecord, error) {
	var rec ClinicalRecord
	result := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("id DESC").
		Limit(1).
		Find(&rec)
	if result.Error != nil {
		return nil, storeError("latest record", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoClinicalRecord
	}
	return &rec, nil
}

func (r *Repository) CreatePrediction(ctx context.Context, pred *Prediction) error {
	pred.ID = 0
	if err := r.db.WithContext(ctx).Omit("Patient").Create(pred).Error; err != nil {
		return storeError("create prediction", err)
	}
	return nil
}

func (r *Repository) ListPredictions(ctx context.Context, patientID uint) ([]Prediction, error) {
	preds := []Prediction{}
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("id DESC").
		Find(&preds).Error
	if err != nil {
		return nil, storeError("list predictions", err)
	}
	return preds, nil
}

func (r *Repository) Summary(ctx context.Context, recentLimit int) (*Summary, error) {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	summary := &Summary{
		RiskDistribution:  map[string]int64{},
		RecentPredictions: []RecentPrediction{},
	}
	db := r.db.WithContext(ctx)

	if err := db.Model(&Patient{}).Count(&summary.TotalPatients).Error; err != nil {
		return nil, storeError("count patients", err)
	}
	if err := db.Model(&ClinicalRecord{}).Count(&summary.TotalRecords).Error; err != nil {
		return nil, storeError("count records", err)
	}
	if err := db.Model(&Prediction{}).Count(&summary.TotalPredictions).Error; err != nil {
		return nil, storeError("count predictions", err)
	}

	var buckets []struct {
		RiskLevel string
		Count     int64
	}
	err := db.Model(&Prediction{}).
		Select("risk_level, COUNT(*) AS count").
		Group("risk_level").
		Scan(&buckets).Error
	if err != nil {
		return nil, storeError("risk distribution", err)
	}
	for _, b := range buckets {
		summary.RiskDistribution[b.RiskLevel] = b.Count
	}

	err = db.Table("predictions").
		Select("predictions.id, predictions.patient_id, patients.name AS patient_name, " +
			"predictions.predicted_score, predictions.risk_level, predictions.created_at").
		Joins("JOIN patients ON patients.id = predictions.patient_id").
		Order("predictions.id DESC").
		Limit(recentLimit).
		Scan(&summary.RecentPredictions).Error
	if err != nil {
		return nil, storeError("recent predictions", err)
	}

	return summary, nil
}
