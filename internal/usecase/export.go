package usecase

import (
	"context"
	"fmt"

	"ledger-reconciliation/internal/domain"
)

// Export takes a full backup of the ledger together with the active
// categorization rules.
func (uc *ReconciliationUseCase) Export(ctx context.Context) (*domain.ExportSnapshot, error) {
	if uc.store == nil {
		return nil, ErrNoLedgerStore
	}
	snapshot, err := uc.loadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not export ledger: %w", err)
	}

	export := &domain.ExportSnapshot{
		Version:      uc.version,
		ExportedAt:   uc.now().UTC(),
		Transactions: snapshot.transactions,
		Lookups: domain.Lookups{
			Accounts:   snapshot.accounts,
			Categories: snapshot.categories,
			Tags:       snapshot.tags,
		},
		Rules: uc.rules.List(),
	}
	log := uc.loggerFor(ctx)
	log.Info().
		Int("transactions", len(export.Transactions)).
		Int("accounts", len(export.Lookups.Accounts)).
		Msg("ledger exported")
	return export, nil
}

// AuditDuplicates reports transactions already in the ledger that share a
// fingerprint with an earlier one.
func (uc *ReconciliationUseCase) AuditDuplicates(ctx context.Context) ([]domain.DuplicatePair, error) {
	if uc.store == nil {
		return nil, ErrNoLedgerStore
	}
	transactions, err := uc.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get transactions: %w", err)
	}
	pairs := uc.dupIndex.FindAllDuplicates(transactions)
	log := uc.loggerFor(ctx)
	log.Info().
		Int("transactions", len(transactions)).
		Int("duplicates", len(pairs)).
		Msg("ledger audit finished")
	return pairs, nil
}
