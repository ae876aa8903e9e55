// Package clinicaltest provides an in-memory clinical.Store for tests.
package clinicaltest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/diseaseforecast/platform/pkg/clinical"
)

// MemoryStore keeps rows in insertion order and hands out monotonically
// increasing ids. A failed transaction removes the rows it inserted; there is
// no isolation, so other callers see those rows until then.
type MemoryStore struct {
	mu          sync.Mutex
	patients    []clinical.Patient
	records     []clinical.ClinicalRecord
	predictions []clinical.Prediction
	nextID      uint

	// Now stamps created_at; tests override it to simulate clock skew.
	Now func() time.Time

	// Fail, when set, is consulted before every operation by name
	// ("CreatePrediction", "GetPatient", ...) and its error returned.
	Fail func(op string) error
}

var _ clinical.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) fail(op string) error {
	if m.Fail == nil {
		return nil
	}
	return m.Fail(op)
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

// Transaction hands fn a view of the store that remembers the rows it
// inserts. When fn fails only those rows are removed, so overlapping
// transactions never undo each other's work.
func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx clinical.Store) error) error {
	if err := m.fail("Transaction"); err != nil {
		return err
	}

	tx := &txStore{MemoryStore: m}
	if err := fn(tx); err != nil {
		m.remove(tx.created)
		return err
	}
	return nil
}

func (m *MemoryStore) remove(ids []uint) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients = keep(m.patients, func(p clinical.Patient) bool { return !drop[p.ID] })
	m.records = keep(m.records, func(r clinical.ClinicalRecord) bool { return !drop[r.ID] })
	m.predictions = keep(m.predictions, func(p clinical.Prediction) bool { return !drop[p.ID] })
}

func keep[T any](rows []T, ok func(T) bool) []T {
	out := rows[:0]
	for _, row := range rows {
		if ok(row) {
			out = append(out, row)
		}
	}
	return out
}

// txStore records the ids inserted through it. Ids come from one counter
// shared by all tables, so an id alone identifies a row.
type txStore struct {
	*MemoryStore
	mu      sync.Mutex
	created []uint
}

func (t *txStore) track(id uint) {
	t.mu.Lock()
	t.created = append(t.created, id)
	t.mu.Unlock()
}

// Transaction joins the enclosing transaction.
func (t *txStore) Transaction(_ context.Context, fn func(tx clinical.Store) error) error {
	return fn(t)
}

func (t *txStore) CreatePatient(ctx context.Context, p *clinical.Patient) error {
	if err := t.MemoryStore.CreatePatient(ctx, p); err != nil {
		return err
	}
	t.track(p.ID)
	return nil
}

func (t *txStore) CreateRecord(ctx context.Context, rec *clinical.ClinicalRecord) error {
	if err := t.MemoryStore.CreateRecord(ctx, rec); err != nil {
		return err
	}
	t.track(rec.ID)
	return nil
}

func (t *txStore) CreatePrediction(ctx context.Context, pred *clinical.Prediction) error {
	if err := t.MemoryStore.CreatePrediction(ctx, pred); err != nil {
		return err
	}
	t.track(pred.ID)
	return nil
}

func (m *MemoryStore) CreatePatient(_ context.Context, p *clinical.Patient) error {
	if err := m.fail("CreatePatient"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.id()
	p.CreatedAt = m.Now()
	m.patients = append(m.patients, *p)
	return nil
}

func (m *MemoryStore) ListPatients(_ context.Context) ([]clinical.Patient, error) {
	if err := m.fail("ListPatients"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]clinical.Patient{}, m.patients...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetPatient(_ context.Context, id uint) (*clinical.Patient, error) {
	if err := m.fail("GetPatient"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.patients {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, clinical.ErrPatientNotFound
}

func (m *MemoryStore) CreateRecord(ctx context.Context, rec *clinical.ClinicalRecord) error {
	if err := m.fail("CreateRecord"); err != nil {
		return err
	}
	if _, err := m.GetPatient(ctx, rec.PatientID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.id()
	rec.CreatedAt = m.Now()
	m.records = append(m.records, *rec)
	return nil
}

func (m *MemoryStore) ListRecords(_ context.Context, patientID uint) ([]clinical.ClinicalRecord, error) {
	if err := m.fail("ListRecords"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []clinical.ClinicalRecord{}
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) LatestRecord(_ context.Context, patientID uint) (*clinical.ClinicalRecord, error) {
	if err := m.fail("LatestRecord"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *clinical.ClinicalRecord
	for i := range m.records {
		r := m.records[i]
		if r.PatientID != patientID {
			continue
		}
		if latest == nil || r.ID > latest.ID {
			latest = &r
		}
	}
	if latest == nil {
		return nil, clinical.ErrNoClinicalRecord
	}
	return latest, nil
}

func (m *MemoryStore) CreatePrediction(_ context.Context, pred *clinical.Prediction) error {
	if err := m.fail("CreatePrediction"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pred.ID = m.id()
	pred.CreatedAt = m.Now()
	m.predictions = append(m.predictions, *pred)
	return nil
}

func (m *MemoryStore) ListPredictions(_ context.Context, patientID uint) ([]clinical.Prediction, error) {
	if err := m.fail("ListPredictions"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []clinical.Prediction{}
	for _, p := range m.predictions {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) Summary(_ context.Context, recentLimit int) (*clinical.Summary, error) {
	if err := m.fail("Summary"); err != nil {
		return nil, err
	}
	if recentLimit <= 0 {
		recentLimit = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make(map[uint]string, len(m.patients))
	for _, p := range m.patients {
		names[p.ID] = p.Name
	}

	s := &clinical.Summary{
		TotalPatients:     int64(len(m.patients)),
		TotalRecords:      int64(len(m.records)),
		TotalPredictions:  int64(len(m.predictions)),
		RiskDistribution:  map[string]int64{},
		RecentPredictions: []clinical.RecentPrediction{},
	}
	for _, p := range m.predictions {
		s.RiskDistribution[p.RiskLevel]++
	}
	for i := len(m.predictions) - 1; i >= 0 && len(s.RecentPredictions) < recentLimit; i-- {
		p := m.predictions[i]
		s.RecentPredictions = append(s.RecentPredictions, clinical.RecentPrediction{
			ID:             p.ID,
			PatientID:      p.PatientID,
			PatientName:    names[p.PatientID],
			PredictedScore: p.PredictedScore,
			RiskLevel:      p.RiskLevel,
			CreatedAt:      p.CreatedAt,
		})
	}
	return s, nil
}

// PredictionCount reports how many prediction rows exist.
func (m *MemoryStore) PredictionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.predictions)
}

// RecordCount reports how many clinical record rows exist.
func (m *MemoryStore) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
