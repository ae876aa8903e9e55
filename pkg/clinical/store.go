package clinical

import "context"

// Store is the persistence contract for patients, clinical records and
// predictions. There are no update or delete operations; ids and created_at
// are assigned by the store on insert.
type Store interface {
	// Transaction runs fn against a store bound to a single transaction. Any
	// error returned by fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreatePatient(ctx context.Context, p *Patient) error
	ListPatients(ctx context.Context) ([]Patient, error)
	GetPatient(ctx context.Context, id uint) (*Patient, error)

	// CreateRecord fails with ErrPatientNotFound when rec.PatientID is unknown.
	CreateRecord(ctx context.Context, rec *ClinicalRecord) error
	ListRecords(ctx context.Context, patientID uint) ([]ClinicalRecord, error)
	// LatestRecord returns the record with the highest id for the patient.
	LatestRecord(ctx context.Context, patientID uint) (*ClinicalRecord, error)

	CreatePrediction(ctx context.Context, pred *Prediction) error
	ListPredictions(ctx context.Context, patientID uint) ([]Prediction, error)

	Summary(ctx context.Context, recentLimit int) (*Summary, error)
}
