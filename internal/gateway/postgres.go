package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger-reconciliation/internal/domain"
)

// LedgerSchema creates the tables PostgresLedger reads and writes.
const LedgerSchema = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	mask       TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ledger_categories (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ledger_tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ledger_transactions (
	id          TEXT PRIMARY KEY,
	date        DATE NOT NULL,
	name        TEXT NOT NULL,
	amount      NUMERIC(14, 2) NOT NULL,
	account_id  TEXT NOT NULL REFERENCES ledger_accounts (id),
	category_id TEXT REFERENCES ledger_categories (id),
	tag_ids     TEXT[] NOT NULL DEFAULT '{}',
	note        TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT 'REGULAR',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const transactionColumns = `id, date::text, name, amount::text, account_id,
	COALESCE(category_id, ''), tag_ids, note, type`

// PostgresLedger is a ledger store and mutation executor backed by PostgreSQL.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger wraps an open connection pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// EnsureSchema creates the ledger tables if they do not exist.
func (p *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, LedgerSchema); err != nil {
		return fmt.Errorf("could not create ledger schema: %w", err)
	}
	return nil
}

func (p *PostgresLedger) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, mask, type FROM ledger_accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("could not list accounts: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		var a domain.Account
		err := row.Scan(&a.ID, &a.Name, &a.Mask, &a.Type)
		return a, err
	})
}

func (p *PostgresLedger) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name FROM ledger_categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func (p *PostgresLedger) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name FROM ledger_tags ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("could not list tags: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tag, error) {
		var t domain.Tag
		err := row.Scan(&t.ID, &t.Name)
		return t, err
	})
}

func (p *PostgresLedger) ListTransactions(ctx context.Context) ([]domain.LedgerTransaction, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("could not list transactions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerTransaction, error) {
		return scanTransaction(row)
	})
}

func (p *PostgresLedger) CreateTransaction(ctx context.Context, input domain.CreateTransactionInput) (domain.LedgerTransaction, error) {
	tagIDs := input.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO ledger_transactions (id, date, name, amount, account_id, category_id, tag_ids, note, type)
		VALUES ($1, $2::date, $3, $4::numeric, $5, NULLIF($6, ''), $7, $8, $9)
		RETURNING `+transactionColumns,
		uuid.NewString(), input.Date, input.Name, input.Amount.String(), input.AccountID,
		input.CategoryID, tagIDs, input.Note, string(input.Type),
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return domain.LedgerTransaction{}, ClassifyError(err)
	}
	return tx, nil
}

func (p *PostgresLedger) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (domain.LedgerTransaction, error) {
	addTags := update.AddTagIDs
	if addTags == nil {
		addTags = []string{}
	}
	row := p.pool.QueryRow(ctx, `
		UPDATE ledger_transactions SET
			category_id = COALESCE($2, category_id),
			note = COALESCE($3, note),
			tag_ids = ARRAY(SELECT DISTINCT unnest(tag_ids || $4::text[]))
		WHERE id = $1
		RETURNING `+transactionColumns,
		id, update.CategoryID, update.Note, addTags,
	)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LedgerTransaction{}, &domain.PermanentExecutionError{Err: fmt.Errorf("transaction %s not found", id)}
	}
	if err != nil {
		return domain.LedgerTransaction{}, ClassifyError(err)
	}
	return tx, nil
}

func (p *PostgresLedger) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id)
	if err != nil {
		return ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.PermanentExecutionError{Err: fmt.Errorf("transaction %s not found", id)}
	}
	return nil
}

func scanTransaction(row pgx.Row) (domain.LedgerTransaction, error) {
	var (
		tx     domain.LedgerTransaction
		amount string
		txType string
	)
	if err := row.Scan(&tx.ID, &tx.Date, &tx.Name, &amount, &tx.AccountID, &tx.CategoryID, &tx.TagIDs, &tx.Note, &txType); err != nil {
		return tx, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("could not parse amount '%s': %w", amount, err)
	}
	tx.Amount = d
	tx.Type = domain.TransactionType(txType)
	if len(tx.TagIDs) == 0 {
		tx.TagIDs = nil
	}
	return tx, nil
}

// ClassifyError wraps a database error as transient or permanent.
// Connection loss, timeouts, serialization failures and resource
// exhaustion are transient; constraint and data errors are permanent.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var (
		transient *domain.TransientExecutionError
		permanent *domain.PermanentExecutionError
	)
	if errors.As(err, &transient) || errors.As(err, &permanent) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "40"), // transaction rollback
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			pgErr.Code == "57P01", pgErr.Code == "57P03":
			return &domain.TransientExecutionError{Err: err}
		default:
			return &domain.PermanentExecutionError{Err: err}
		}
	}

	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) ||
		errors.As(err, &connectErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &domain.TransientExecutionError{Err: err}
	}
	return &domain.PermanentExecutionError{Err: err}
}
