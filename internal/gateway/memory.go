package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ledger-reconciliation/internal/domain"
)

// MemoryLedger is an in-memory ledger that serves both reads and mutations.
// It is safe for concurrent use. Data lives only as long as the process; use
// WriteSnapshot to keep it.
type MemoryLedger struct {
	mu           sync.RWMutex
	accounts     []domain.Account
	categories   []domain.Category
	tags         []domain.Tag
	transactions []domain.LedgerTransaction
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// NewMemoryLedgerFromSnapshot seeds a ledger from an exported backup.
func NewMemoryLedgerFromSnapshot(s domain.ExportSnapshot) *MemoryLedger {
	return &MemoryLedger{
		accounts:     append([]domain.Account(nil), s.Lookups.Accounts...),
		categories:   append([]domain.Category(nil), s.Lookups.Categories...),
		tags:         append([]domain.Tag(nil), s.Lookups.Tags...),
		transactions: cloneTransactions(s.Transactions),
	}
}

// AddAccount registers an account. An empty ID is replaced by a new UUID.
func (m *MemoryLedger) AddAccount(a domain.Account) domain.Account {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.mu.Lock()
	m.accounts = append(m.accounts, a)
	m.mu.Unlock()
	return a
}

// AddCategory registers a category. An empty ID is replaced by a new UUID.
func (m *MemoryLedger) AddCategory(c domain.Category) domain.Category {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	m.mu.Lock()
	m.categories = append(m.categories, c)
	m.mu.Unlock()
	return c
}

// AddTag registers a tag. An empty ID is replaced by a new UUID.
func (m *MemoryLedger) AddTag(t domain.Tag) domain.Tag {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.mu.Lock()
	m.tags = append(m.tags, t)
	m.mu.Unlock()
	return t
}

// AddTransaction stores an existing transaction as-is, bypassing validation.
func (m *MemoryLedger) AddTransaction(tx domain.LedgerTransaction) domain.LedgerTransaction {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	m.mu.Lock()
	m.transactions = append(m.transactions, cloneTransaction(tx))
	m.mu.Unlock()
	return tx
}

func (m *MemoryLedger) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Account{}, m.accounts...), nil
}

func (m *MemoryLedger) ListCategories(ctx context.Context) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Category{}, m.categories...), nil
}

func (m *MemoryLedger) ListTags(ctx context.Context) ([]domain.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Tag{}, m.tags...), nil
}

func (m *MemoryLedger) ListTransactions(ctx context.Context) ([]domain.LedgerTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneTransactions(m.transactions), nil
}

// CreateTransaction stores a new transaction under a fresh UUID. Unknown
// account, category or tag IDs are rejected as permanent errors.
func (m *MemoryLedger) CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, &domain.TransientExecutionError{Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasAccount(input.AccountID) {
		return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("account %s not found", input.AccountID)}
	}
	if input.CategoryID != "" && !m.hasCategory(input.CategoryID) {
		return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("category %s not found", input.CategoryID)}
	}
	for _, id := range input.TagIDs {
		if !m.hasTag(id) {
			return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("tag %s not found", id)}
		}
	}

	tx := domain.LedgerTransaction{
		ID:         uuid.NewString(),
		Date:       input.Date,
		Name:       input.Name,
		Amount:     input.Amount,
		AccountID:  input.AccountID,
		CategoryID: input.CategoryID,
		TagIDs:     append([]string(nil), input.TagIDs...),
		Note:       input.Note,
		Type:       input.Type,
	}
	m.transactions = append(m.transactions, tx)
	return cloneTransaction(tx), nil
}

// UpdateTransaction applies a partial update to an existing transaction.
func (m *MemoryLedger) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (domain.LedgerTransaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTransaction{}, &domain.TransientExecutionError{Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("transaction %s not found", id)}
	}
	tx := &m.transactions[i]
	if update.CategoryID != nil {
		if !m.hasCategory(*update.CategoryID) {
			return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("category %s not found", *update.CategoryID)}
		}
		tx.CategoryID = *update.CategoryID
	}
	if update.Note != nil {
		tx.Note = *update.Note
	}
	for _, tagID := range update.AddTagIDs {
		if !m.hasTag(tagID) {
			return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("tag %s not found", tagID)}
		}
		if !contains(tx.TagIDs, tagID) {
			tx.TagIDs = append(tx.TagIDs, tagID)
		}
	}
	return cloneTransaction(*tx), nil
}

// DeleteTransaction removes a transaction by ID.
func (m *MemoryLedger) DeleteTransaction(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &domain.TransientExecutionError{Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return &domain.PermanentExecutionError{Err: fmt.Errorf("transaction %s not found", id)}
	}
	m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
	return nil
}

// Snapshot returns the ledger contents in export form.
func (m *MemoryLedger) Snapshot() domain.ExportSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.ExportSnapshot{
		Transactions: cloneTransactions(m.transactions),
		Lookups: domain.Lookups{
			Accounts:   append([]domain.Account{}, m.accounts...),
			Categories: append([]domain.Category{}, m.categories...),
			Tags:       append([]domain.Tag{}, m.tags...),
		},
	}
}

func (m *MemoryLedger) indexOf(id string) int {
	for i, tx := range m.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryLedger) hasAccount(id string) bool {
	for _, a := range m.accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (m *MemoryLedger) hasCategory(id string) bool {
	for _, c := range m.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (m *MemoryLedger) hasTag(id string) bool {
	for _, t := range m.tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneTransaction(tx domain.LedgerTransaction) domain.LedgerTransaction {
	tx.TagIDs = append([]string(nil), tx.TagIDs...)
	return tx
}

func cloneTransactions(txs []domain.LedgerTransaction) []domain.LedgerTransaction {
	out := make([]domain.LedgerTransaction, len(txs))
	for i, tx := range txs {
		out[i] = cloneTransaction(tx)
	}
	return out
}
