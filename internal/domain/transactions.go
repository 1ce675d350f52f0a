package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType defines the nature of the transaction on the remote ledger.
type TransactionType string

const (
	TransactionTypeRegular          TransactionType = "REGULAR"
	TransactionTypeIncome           TransactionType = "INCOME"
	TransactionTypeInternalTransfer TransactionType = "INTERNAL_TRANSFER"
)

// ParseTransactionType maps free text ("Income", "internal transfer", ...)
// to a TransactionType. Anything unrecognised is REGULAR.
func ParseTransactionType(s string) TransactionType {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch TransactionType(normalized) {
	case TransactionTypeIncome:
		return TransactionTypeIncome
	case TransactionTypeInternalTransfer:
		return TransactionTypeInternalTransfer
	default:
		return TransactionTypeRegular
	}
}

// Account is an account known to the remote ledger.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Mask holds the last digits of the underlying instrument, if any.
	Mask string `json:"mask,omitempty"`
	Type string `json:"type,omitempty"`
}

// Category is a spending/income category known to the remote ledger.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is a free-form label known to the remote ledger.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LedgerTransaction is a transaction that already exists on the remote ledger.
type LedgerTransaction struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	AccountID  string          `json:"account_id"`
	CategoryID string          `json:"category_id,omitempty"`
	TagIDs     []string        `json:"tag_ids,omitempty"`
	Note       string          `json:"note,omitempty"`
	Type       TransactionType `json:"type"`
}

// Candidate is an incoming transaction that may or may not be created.
// Account, category and tag fields hold human references, not IDs,
// except AccountID which callers may supply pre-resolved.
type Candidate struct {
	Date        string              `json:"date"`
	Name        string              `json:"name"`
	Amount      decimal.NullDecimal `json:"amount"`
	AccountRef  string              `json:"account,omitempty"`
	AccountMask string              `json:"account_mask,omitempty"`
	AccountID   string              `json:"account_id,omitempty"`
	CategoryRef string              `json:"category,omitempty"`
	TagRefs     []string            `json:"tags,omitempty"`
	Note        string              `json:"note,omitempty"`
	Type        TransactionType     `json:"type"`
}

// TransactionType returns the candidate's type, defaulting to REGULAR.
func (c Candidate) TransactionType() TransactionType {
	if c.Type == "" {
		return TransactionTypeRegular
	}
	return c.Type
}

// CreateTransactionInput is what the mutation executor receives for a create.
type CreateTransactionInput struct {
	Date       string          `json:"date"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	AccountID  string          `json:"account_id"`
	CategoryID string          `json:"category_id,omitempty"`
	TagIDs     []string        `json:"tag_ids,omitempty"`
	Note       string          `json:"note,omitempty"`
	Type       TransactionType `json:"type"`
}

// TransactionUpdate describes a partial update. Nil fields are left untouched.
type TransactionUpdate struct {
	CategoryID *string  `json:"category_id,omitempty"`
	Note       *string  `json:"note,omitempty"`
	AddTagIDs  []string `json:"add_tag_ids,omitempty"`
}
