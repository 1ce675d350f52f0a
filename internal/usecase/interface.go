package usecase

import (
	"context"
	"time"

	"ledger-reconciliation/internal/domain"
)

// LedgerStore is the read side of the remote ledger. Every call returns a
// point-in-time snapshot in a stable order.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go
type LedgerStore interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	ListTransactions(ctx context.Context) ([]domain.LedgerTransaction, error)
}

// MutationExecutor is the write side of the remote ledger. Each call acts on
// a single transaction and may fail transiently.
type MutationExecutor interface {
	CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (domain.LedgerTransaction, error)
	UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (domain.LedgerTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Sleeper waits between remote calls. It returns early with ctx.Err() when
// the context is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
