package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciliation/internal/domain"
	"ledger-reconciliation/internal/usecase"
)

func TestDuplicateIndex_Fingerprint(t *testing.T) {
	d := usecase.NewDuplicateIndex(usecase.FingerprintOptions{})
	base := d.Fingerprint("2024-01-15", "Coffee Shop", decimal.RequireFromString("-4.50"), "acc-1")

	assert.Equal(t, "2024-01-15|coffee shop|4.50|acc-1", base)

	tests := []struct {
		name    string
		date    string
		txName  string
		amount  string
		account string
		same    bool
	}{
		{name: "case and whitespace", date: "2024-01-15", txName: "  COFFEE shop ", amount: "-4.50", account: "acc-1", same: true},
		{name: "sign", date: "2024-01-15", txName: "Coffee Shop", amount: "4.5", account: "acc-1", same: true},
		{name: "timestamp on same day", date: "2024-01-15T18:30:00Z", txName: "Coffee Shop", amount: "-4.50", account: "acc-1", same: true},
		{name: "timestamp with offset keeps written day", date: "2024-01-15T23:30:00-05:00", txName: "Coffee Shop", amount: "-4.50", account: "acc-1", same: true},
		{name: "different day", date: "2024-01-16", txName: "Coffee Shop", amount: "-4.50", account: "acc-1", same: false},
		{name: "different amount", date: "2024-01-15", txName: "Coffee Shop", amount: "-4.51", account: "acc-1", same: false},
		{name: "different account", date: "2024-01-15", txName: "Coffee Shop", amount: "-4.50", account: "acc-2", same: false},
		{name: "punctuation matters by default", date: "2024-01-15", txName: "Coffee-Shop", amount: "-4.50", account: "acc-1", same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Fingerprint(tt.date, tt.txName, decimal.RequireFromString(tt.amount), tt.account)
			assert.Equal(t, tt.same, got == base, got)
			assert.Equal(t, got, d.Fingerprint(tt.date, tt.txName, decimal.RequireFromString(tt.amount), tt.account))
		})
	}
}

func TestDuplicateIndex_FingerprintOptions(t *testing.T) {
	d := usecase.NewDuplicateIndex(usecase.FingerprintOptions{StripNonAlphanumeric: true, MaxNameLength: 10})
	amount := decimal.RequireFromString("10")

	assert.Equal(t, "2024-01-15|coffeeshop|10.00|acc-1", d.Fingerprint("2024-01-15", "Coffee-Shop!", amount, "acc-1"))
	assert.Equal(t,
		d.Fingerprint("2024-01-15", "AMAZON MKTPLACE PMTS 123", amount, "acc-1"),
		d.Fingerprint("2024-01-15", "Amazon Mktplace 456", amount, "acc-1"),
	)
}

func TestDuplicateIndex_IsDuplicate(t *testing.T) {
	d := usecase.NewDuplicateIndex(usecase.FingerprintOptions{})
	existing := []domain.LedgerTransaction{
		{ID: "tx-1", Date: "2024-01-15", Name: "Coffee Shop", Amount: decimal.RequireFromString("-4.50"), AccountID: "acc-1"},
		{ID: "tx-2", Date: "2024-01-15", Name: "coffee shop", Amount: decimal.RequireFromString("4.50"), AccountID: "acc-1"},
	}

	got := d.IsDuplicate(existing, domain.LedgerTransaction{Date: "2024-01-15", Name: "COFFEE SHOP", Amount: decimal.RequireFromString("-4.5"), AccountID: "acc-1"})
	require.True(t, got.IsDuplicate)
	assert.Equal(t, "tx-1", got.Match.ID)

	got = d.IsDuplicate(existing, domain.LedgerTransaction{Date: "2024-01-16", Name: "Coffee Shop", Amount: decimal.RequireFromString("-4.50"), AccountID: "acc-1"})
	assert.False(t, got.IsDuplicate)
	assert.Nil(t, got.Match)
}

func TestDuplicateIndex_FindAllDuplicates(t *testing.T) {
	d := usecase.NewDuplicateIndex(usecase.FingerprintOptions{})
	tx := func(id, date, name, amount string) domain.LedgerTransaction {
		return domain.LedgerTransaction{ID: id, Date: date, Name: name, Amount: decimal.RequireFromString(amount), AccountID: "acc-1"}
	}

	pairs := d.FindAllDuplicates([]domain.LedgerTransaction{
		tx("a", "2024-01-15", "Coffee", "-4.50"),
		tx("b", "2024-01-15", "Rent", "-1200"),
		tx("c", "2024-01-15", "coffee", "-4.50"),
		tx("d", "2024-01-15", "Coffee ", "4.50"),
		tx("e", "2024-01-15", "Rent", "-1200.00"),
	})

	require.Len(t, pairs, 3)
	assert.Equal(t, "a", pairs[0].Original.ID)
	assert.Equal(t, "c", pairs[0].Duplicate.ID)
	assert.Equal(t, "a", pairs[1].Original.ID)
	assert.Equal(t, "d", pairs[1].Duplicate.ID)
	assert.Equal(t, "b", pairs[2].Original.ID)
	assert.Equal(t, "e", pairs[2].Duplicate.ID)

	assert.Empty(t, d.FindAllDuplicates(nil))
}
