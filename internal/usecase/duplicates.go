package usecase

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"ledger-reconciliation/internal/domain"
)

const fingerprintSeparator = "|"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// FingerprintOptions tunes name normalization. The zero value compares the
// full lower-cased, trimmed name.
type FingerprintOptions struct {
	// StripNonAlphanumeric drops everything but letters and digits.
	StripNonAlphanumeric bool
	// MaxNameLength truncates the normalized name; 0 means no limit.
	MaxNameLength int
}

// DuplicateCheck is the answer to "does this transaction already exist".
type DuplicateCheck struct {
	IsDuplicate bool
	Match       *domain.LedgerTransaction
}

// DuplicateIndex computes transaction fingerprints and compares them.
type DuplicateIndex struct {
	opts FingerprintOptions
}

// NewDuplicateIndex creates a DuplicateIndex with the given normalization.
func NewDuplicateIndex(opts FingerprintOptions) *DuplicateIndex {
	return &DuplicateIndex{opts: opts}
}

// Fingerprint returns date|name|amount|accountID with each part normalized:
// calendar day, trimmed lower-case name, absolute amount to two decimals.
func (d *DuplicateIndex) Fingerprint(date, name string, amount decimal.Decimal, accountID string) string {
	return strings.Join([]string{
		normalizeDate(date),
		d.normalizeName(name),
		amount.Abs().StringFixed(2),
		strings.TrimSpace(accountID),
	}, fingerprintSeparator)
}

// TransactionFingerprint fingerprints an existing ledger transaction.
func (d *DuplicateIndex) TransactionFingerprint(tx domain.LedgerTransaction) string {
	return d.Fingerprint(tx.Date, tx.Name, tx.Amount, tx.AccountID)
}

// IsDuplicate reports the first existing transaction sharing tx's fingerprint.
func (d *DuplicateIndex) IsDuplicate(existing []domain.LedgerTransaction, tx domain.LedgerTransaction) DuplicateCheck {
	key := d.TransactionFingerprint(tx)
	for i := range existing {
		if d.TransactionFingerprint(existing[i]) == key {
			match := existing[i]
			return DuplicateCheck{IsDuplicate: true, Match: &match}
		}
	}
	return DuplicateCheck{}
}

// FindAllDuplicates walks existing once. The first transaction with a given
// fingerprint is the original; every later one is reported against it.
func (d *DuplicateIndex) FindAllDuplicates(existing []domain.LedgerTransaction) []domain.DuplicatePair {
	seen := make(map[string]domain.LedgerTransaction, len(existing))
	pairs := make([]domain.DuplicatePair, 0)
	for _, tx := range existing {
		key := d.TransactionFingerprint(tx)
		if original, ok := seen[key]; ok {
			pairs = append(pairs, domain.DuplicatePair{Original: original, Duplicate: tx})
			continue
		}
		seen[key] = tx
	}
	return pairs
}

func (d *DuplicateIndex) normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if d.opts.StripNonAlphanumeric {
		n = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, n)
	}
	if d.opts.MaxNameLength > 0 {
		if runes := []rune(n); len(runes) > d.opts.MaxNameLength {
			n = string(runes[:d.opts.MaxNameLength])
		}
	}
	return n
}

// normalizeDate reduces a date or timestamp to YYYY-MM-DD as written,
// without converting between time zones. Unreadable input is kept trimmed.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse(time.DateOnly, s[:10]); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return strings.ToLower(s)
}

// fingerprintSet tracks fingerprints seen during one import run. It is
// seeded from the ledger snapshot and owned by a single invocation.
type fingerprintSet struct {
	entries map[string]fingerprintEntry
}

type fingerprintEntry struct {
	tx    domain.LedgerTransaction
	index int
}

func newFingerprintSet(d *DuplicateIndex, existing []domain.LedgerTransaction) *fingerprintSet {
	s := &fingerprintSet{entries: make(map[string]fingerprintEntry, len(existing))}
	for _, tx := range existing {
		key := d.TransactionFingerprint(tx)
		if _, ok := s.entries[key]; !ok {
			s.entries[key] = fingerprintEntry{tx: tx, index: -1}
		}
	}
	return s
}

func (s *fingerprintSet) lookup(key string) (fingerprintEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *fingerprintSet) add(key string, tx domain.LedgerTransaction, index int) {
	if _, ok := s.entries[key]; !ok {
		s.entries[key] = fingerprintEntry{tx: tx, index: index}
	}
}
