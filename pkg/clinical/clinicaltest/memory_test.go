package clinicaltest

import (
	"context"
	"errors"
	"testing"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRollbackRemovesOnlyItsRows(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	inserted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.Transaction(ctx, func(tx clinical.Store) error {
			if err := tx.CreatePatient(ctx, &clinical.Patient{Name: "Rolled Back", Age: 30}); err != nil {
				return err
			}
			close(inserted)
			<-release
			return boom
		})
	}()

	<-inserted
	var kept clinical.Patient
	require.NoError(t, store.Transaction(ctx, func(tx clinical.Store) error {
		kept = clinical.Patient{Name: "Committed", Age: 40}
		if err := tx.CreatePatient(ctx, &kept); err != nil {
			return err
		}
		return tx.CreateRecord(ctx, &clinical.ClinicalRecord{PatientID: kept.ID})
	}))
	close(release)
	assert.ErrorIs(t, <-done, boom)

	patients, err := store.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Committed", patients[0].Name)
	assert.Equal(t, 1, store.RecordCount())
}

func TestTransactionRollbackAfterPartialWrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	p := &clinical.Patient{Name: "Ravi Kumar", Age: 45, Gender: "Male"}
	require.NoError(t, store.CreatePatient(ctx, p))

	err := store.Transaction(ctx, func(tx clinical.Store) error {
		if err := tx.CreatePrediction(ctx, &clinical.Prediction{PatientID: p.ID, PredictedScore: 90, RiskLevel: "LOW"}); err != nil {
			return err
		}
		return tx.Transaction(ctx, func(inner clinical.Store) error {
			if err := inner.CreatePrediction(ctx, &clinical.Prediction{PatientID: p.ID, PredictedScore: 95, RiskLevel: "LOW"}); err != nil {
				return err
			}
			return clinical.ErrStoreUnavailable
		})
	})
	assert.ErrorIs(t, err, clinical.ErrStoreUnavailable)
	assert.Zero(t, store.PredictionCount())

	_, err = store.GetPatient(ctx, p.ID)
	assert.NoError(t, err)
}
