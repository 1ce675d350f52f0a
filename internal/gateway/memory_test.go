package gateway

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciliation/internal/domain"
)

func newSeededLedger() *MemoryLedger {
	l := NewMemoryLedger()
	l.AddAccount(domain.Account{ID: "acc-1", Name: "Checking", Mask: "0001"})
	l.AddCategory(domain.Category{ID: "cat-1", Name: "Dining"})
	l.AddCategory(domain.Category{ID: "cat-2", Name: "Other"})
	l.AddTag(domain.Tag{ID: "tag-1", Name: "work"})
	l.AddTransaction(domain.LedgerTransaction{
		ID:        "tx-1",
		Date:      "2024-01-15",
		Name:      "Coffee Shop",
		Amount:    decimal.RequireFromString("-4.50"),
		AccountID: "acc-1",
		Type:      domain.TransactionTypeRegular,
	})
	return l
}

func TestMemoryLedger_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   domain.CreateTransactionInput
		wantErr bool
	}{
		{
			name: "valid input",
			input: domain.CreateTransactionInput{
				Date: "2024-01-16", Name: "Lunch", Amount: decimal.RequireFromString("-12"),
				AccountID: "acc-1", CategoryID: "cat-1", TagIDs: []string{"tag-1"}, Type: domain.TransactionTypeRegular,
			},
		},
		{
			name:    "unknown account",
			input:   domain.CreateTransactionInput{Date: "2024-01-16", Name: "Lunch", AccountID: "acc-9"},
			wantErr: true,
		},
		{
			name:    "unknown category",
			input:   domain.CreateTransactionInput{Date: "2024-01-16", Name: "Lunch", AccountID: "acc-1", CategoryID: "cat-9"},
			wantErr: true,
		},
		{
			name:    "unknown tag",
			input:   domain.CreateTransactionInput{Date: "2024-01-16", Name: "Lunch", AccountID: "acc-1", TagIDs: []string{"tag-9"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newSeededLedger()

			got, err := l.CreateTransaction(ctx, tt.input)
			if tt.wantErr {
				var permanent *domain.PermanentExecutionError
				assert.ErrorAs(t, err, &permanent)
				txs, _ := l.ListTransactions(ctx)
				assert.Len(t, txs, 1)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.input.Name, got.Name)

			txs, err := l.ListTransactions(ctx)
			require.NoError(t, err)
			assert.Len(t, txs, 2)
		})
	}
}

func TestMemoryLedger_CancelledContextIsTransient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSeededLedger().CreateTransaction(ctx, domain.CreateTransactionInput{AccountID: "acc-1"})

	var transient *domain.TransientExecutionError
	assert.ErrorAs(t, err, &transient)
}

func TestMemoryLedger_UpdateTransaction(t *testing.T) {
	ctx := context.Background()
	l := newSeededLedger()
	category := "cat-1"
	note := "team lunch"

	got, err := l.UpdateTransaction(ctx, "tx-1", domain.TransactionUpdate{CategoryID: &category, Note: &note, AddTagIDs: []string{"tag-1"}})
	require.NoError(t, err)
	assert.Equal(t, "cat-1", got.CategoryID)
	assert.Equal(t, "team lunch", got.Note)
	assert.Equal(t, []string{"tag-1"}, got.TagIDs)

	got, err = l.UpdateTransaction(ctx, "tx-1", domain.TransactionUpdate{AddTagIDs: []string{"tag-1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, got.TagIDs)

	_, err = l.UpdateTransaction(ctx, "tx-9", domain.TransactionUpdate{Note: &note})
	var permanent *domain.PermanentExecutionError
	assert.ErrorAs(t, err, &permanent)
}

func TestMemoryLedger_DeleteTransaction(t *testing.T) {
	ctx := context.Background()
	l := newSeededLedger()

	require.NoError(t, l.DeleteTransaction(ctx, "tx-1"))
	txs, err := l.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	err = l.DeleteTransaction(ctx, "tx-1")
	var permanent *domain.PermanentExecutionError
	assert.ErrorAs(t, err, &permanent)
}

func TestMemoryLedger_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	l := newSeededLedger()
	_, err := l.UpdateTransaction(ctx, "tx-1", domain.TransactionUpdate{AddTagIDs: []string{"tag-1"}})
	require.NoError(t, err)

	txs, err := l.ListTransactions(ctx)
	require.NoError(t, err)
	txs[0].Name = "changed"
	txs[0].TagIDs[0] = "changed"

	again, err := l.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Coffee Shop", again[0].Name)
	assert.Equal(t, []string{"tag-1"}, again[0].TagIDs)
}

func TestSnapshotFile_SaveAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	snapshot := newSeededLedger().Snapshot()
	snapshot.Version = "1.0.0"
	snapshot.ExportedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	snapshot.Rules = []domain.CategorizationRule{{Pattern: "coffee", Category: "Dining", Priority: 10}}
	require.NoError(t, WriteSnapshot(path, snapshot))

	file, err := OpenSnapshotFile(path)
	require.NoError(t, err)

	_, err = file.CreateTransaction(ctx, domain.CreateTransactionInput{
		Date: "2024-01-16", Name: "Lunch", Amount: decimal.RequireFromString("-12"), AccountID: "acc-1",
	})
	require.NoError(t, err)
	require.NoError(t, file.Save())

	reloaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reloaded.Version)
	assert.Equal(t, snapshot.Rules, reloaded.Rules)
	assert.Len(t, reloaded.Transactions, 2)
	assert.Equal(t, snapshot.Lookups, reloaded.Lookups)
	assert.True(t, reloaded.Transactions[0].Amount.Equal(decimal.RequireFromString("-4.50")))
}

func TestLoadSnapshot_Errors(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadSnapshot(writeTempFile(t, "bad.json", "{not json"))
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	path := writeTempFile(t, "rules.yaml", `rules:
  - pattern: starbucks
    category: Coffee
    priority: 10
  - pattern: uber
    category: Transport
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.CategorizationRule{
		{Pattern: "starbucks", Category: "Coffee", Priority: 10},
		{Pattern: "uber", Category: "Transport"},
	}, rules)

	empty, err := LoadRules(writeTempFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadRules(writeTempFile(t, "bad.yaml", "rules: [unclosed"))
	assert.Error(t, err)
}
