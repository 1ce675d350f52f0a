package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledger-reconciliation/internal/domain"
	"ledger-reconciliation/internal/usecase"
)

func TestRules_Suggest(t *testing.T) {
	rules := usecase.NewRules(
		domain.CategorizationRule{Pattern: "amazon", Category: "Shopping"},
		domain.CategorizationRule{Pattern: "Amazon Prime", Category: "Subscriptions", Priority: 10},
		domain.CategorizationRule{Pattern: "uber", Category: "Transport"},
		domain.CategorizationRule{Pattern: "uber eats", Category: "Dining"},
		domain.CategorizationRule{Pattern: " ", Category: "Ignored"},
		domain.CategorizationRule{Pattern: "shell", Category: ""},
	)

	tests := []struct {
		name         string
		txName       string
		wantCategory string
		wantOK       bool
	}{
		{name: "higher priority wins", txName: "AMAZON PRIME VIDEO", wantCategory: "Subscriptions", wantOK: true},
		{name: "default priority", txName: "Amazon Marketplace", wantCategory: "Shopping", wantOK: true},
		{name: "equal priority keeps order", txName: "Uber Eats order", wantCategory: "Transport", wantOK: true},
		{name: "no match", txName: "Shell Station", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, ok := rules.Suggest(tt.txName)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCategory, category)
		})
	}
}

func TestRules_List(t *testing.T) {
	rules := usecase.NewRules(
		domain.CategorizationRule{Pattern: "Coffee", Category: "Dining", Priority: 1},
		domain.CategorizationRule{Pattern: "Rent", Category: "Housing", Priority: 20},
	)

	assert.Equal(t, []domain.CategorizationRule{
		{Pattern: "rent", Category: "Housing", Priority: 20},
		{Pattern: "coffee", Category: "Dining", Priority: 1},
	}, rules.List())

	var nilRules *usecase.Rules
	assert.Empty(t, nilRules.List())
	_, ok := nilRules.Suggest("anything")
	assert.False(t, ok)
}

func TestReconciliationUseCase_SuggestCategory(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(newLedger(), nil, dryRunConfig(),
		usecase.WithRules(usecase.NewRules(domain.CategorizationRule{Pattern: "netflix", Category: "Subscriptions"})),
	)

	category, ok := uc.SuggestCategory("NETFLIX.COM")
	assert.True(t, ok)
	assert.Equal(t, "Subscriptions", category)
}
