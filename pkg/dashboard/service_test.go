package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/clinical/clinicaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	stored *clinical.Summary
	ttl    time.Duration
	getErr error
	setErr error
	gets   int
	sets   int
}

func (c *memoryCache) GetSummary(context.Context) (*clinical.Summary, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.stored, nil
}

func (c *memoryCache) SetSummary(_ context.Context, s *clinical.Summary, ttl time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.stored, c.ttl = s, ttl
	return nil
}

func seed(t *testing.T, store *clinicaltest.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	ravi := &clinical.Patient{Name: "Ravi Kumar", Age: 45, Gender: "Male"}
	asha := &clinical.Patient{Name: "Asha Rao", Age: 61, Gender: "Female"}
	require.NoError(t, store.CreatePatient(ctx, ravi))
	require.NoError(t, store.CreatePatient(ctx, asha))

	rec := &clinical.ClinicalRecord{PatientID: ravi.ID}
	require.NoError(t, store.CreateRecord(ctx, rec))

	for _, p := range []clinical.Prediction{
		{PatientID: ravi.ID, RecordID: rec.ID, PredictedScore: 95, RiskLevel: "LOW"},
		{PatientID: ravi.ID, RecordID: rec.ID, PredictedScore: 210, RiskLevel: "HIGH"},
		{PatientID: asha.ID, RecordID: rec.ID, PredictedScore: 215, RiskLevel: "HIGH"},
	} {
		require.NoError(t, store.CreatePrediction(ctx, &p))
	}
}

func TestSummaryAggregates(t *testing.T) {
	store := clinicaltest.NewMemoryStore()
	seed(t, store)
	svc := NewService(store, nil, 2, 0)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, s.TotalPatients)
	assert.EqualValues(t, 1, s.TotalRecords)
	assert.EqualValues(t, 3, s.TotalPredictions)
	assert.Equal(t, map[string]int64{"LOW": 1, "MEDIUM": 0, "HIGH": 2}, s.RiskDistribution)
	require.Len(t, s.RecentPredictions, 2)
	assert.Equal(t, "Asha Rao", s.RecentPredictions[0].PatientName)
	assert.Equal(t, 215.0, s.RecentPredictions[0].PredictedScore)
}

func TestSummaryEmptyStore(t *testing.T) {
	svc := NewService(clinicaltest.NewMemoryStore(), nil, 0, 0)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.TotalPatients)
	assert.Len(t, s.RiskDistribution, 3)
	assert.NotNil(t, s.RecentPredictions)
}

func TestSummaryUsesCache(t *testing.T) {
	store := clinicaltest.NewMemoryStore()
	seed(t, store)
	cache := &memoryCache{}
	svc := NewService(store, cache, 10, time.Minute)

	first, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, time.Minute, cache.ttl)

	store.Fail = func(op string) error {
		if op == "Summary" {
			return clinical.ErrStoreUnavailable
		}
		return nil
	}
	second, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSummaryBypassesBrokenCache(t *testing.T) {
	store := clinicaltest.NewMemoryStore()
	seed(t, store)
	cache := &memoryCache{getErr: errors.New("connection refused"), setErr: errors.New("connection refused")}
	svc := NewService(store, cache, 10, time.Minute)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, s.TotalPredictions)
}

func TestSummaryStoreFailure(t *testing.T) {
	store := clinicaltest.NewMemoryStore()
	store.Fail = func(string) error { return clinical.ErrStoreUnavailable }
	svc := NewService(store, nil, 10, 0)

	_, err := svc.Summary(context.Background())
	assert.ErrorIs(t, err, clinical.ErrStoreUnavailable)
}

func TestNewRedisCacheNilClient(t *testing.T) {
	assert.Nil(t, NewRedisCache(nil))
}
