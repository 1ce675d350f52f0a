package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciliation/internal/domain"
	"ledger-reconciliation/internal/usecase"
)

func TestReconciliationUseCase_Stream(t *testing.T) {
	ledger := newLedger()
	var callbackEvents int
	cfg := dryRunConfig()
	cfg.OnProgress = func(domain.ProgressEvent) { callbackEvents++ }

	uc := usecase.NewReconciliationUseCase(ledger, ledger, cfg)
	events, done := uc.Stream(context.Background(), []domain.Candidate{
		candidate("2024-01-15", "Coffee Shop", "-4.50", "Checking"),
		candidate("2024-01-16", "Lunch", "-12", "Checking"),
		candidate("2024-01-16", "Nothing", "0", "Checking"),
	})

	var got []domain.ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	outcome := <-done

	require.NoError(t, outcome.Err)
	require.Len(t, got, 3)
	for i, ev := range got {
		assert.Equal(t, i, ev.Index)
		assert.Equal(t, 3, ev.Total)
	}
	assert.Equal(t, domain.StatusDuplicate, got[0].Status)
	assert.Equal(t, domain.ErrDuplicateDetected.Error(), got[0].Error)
	assert.Equal(t, domain.StatusWouldCreate, got[1].Status)
	assert.Equal(t, domain.StatusSkipped, got[2].Status)
	assert.Equal(t, 3, callbackEvents)
	assert.True(t, outcome.Result.Complete)

	_, open := <-done
	assert.False(t, open)
}

func TestReconciliationUseCase_Stream_Error(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(newLedger(), nil, dryRunConfig())
	events, done := uc.Stream(context.Background(), nil)

	_, open := <-events
	assert.False(t, open)
	outcome := <-done
	assert.ErrorIs(t, outcome.Err, usecase.ErrNoCandidates)
	assert.Nil(t, outcome.Result)
}
