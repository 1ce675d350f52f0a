package domain

import "time"

// ItemStatus is the final classification of a single candidate.
type ItemStatus string

const (
	StatusCreated     ItemStatus = "created"
	StatusWouldCreate ItemStatus = "would_create"
	StatusDuplicate   ItemStatus = "duplicate"
	StatusSkipped     ItemStatus = "skipped"
	StatusInvalid     ItemStatus = "invalid"
	StatusFailed      ItemStatus = "failed"
)

// CreatedItem is a candidate that was created, or would be in a dry run.
type CreatedItem struct {
	Index          int       `json:"index"`
	Candidate      Candidate `json:"candidate"`
	ID             string    `json:"id,omitempty"`
	AccountID      string    `json:"account_id"`
	CategoryID     string    `json:"category_id,omitempty"`
	TagIDs         []string  `json:"tag_ids,omitempty"`
	UnresolvedTags []string  `json:"unresolved_tags,omitempty"`
	Fingerprint    string    `json:"fingerprint"`
	Attempts       int       `json:"attempts,omitempty"`
}

// DuplicateItem is a candidate suppressed because its fingerprint already
// exists. ExistingIndex is the batch index of the earlier candidate when the
// conflict came from this run, or -1 when it came from the ledger.
type DuplicateItem struct {
	Index         int               `json:"index"`
	Candidate     Candidate         `json:"candidate"`
	Existing      LedgerTransaction `json:"existing"`
	ExistingIndex int               `json:"existing_index"`
	Fingerprint   string            `json:"fingerprint"`
}

// ErrorItem is a candidate that was rejected or failed to execute.
type ErrorItem struct {
	Index     int        `json:"index"`
	Candidate Candidate  `json:"candidate"`
	Status    ItemStatus `json:"status"`
	Message   string     `json:"message"`
	Attempts  int        `json:"attempts,omitempty"`
}

// SkippedItem is a candidate that was deliberately not imported.
type SkippedItem struct {
	Index     int       `json:"index"`
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}

// BatchResult summarises one import run. The four partitions are disjoint
// and, for a complete run, their sizes add up to Total.
type BatchResult struct {
	RunID      string          `json:"run_id"`
	DryRun     bool            `json:"dry_run"`
	Total      int             `json:"total"`
	Processed  int             `json:"processed"`
	Complete   bool            `json:"complete"`
	HaltReason string          `json:"halt_reason,omitempty"`
	Created    []CreatedItem   `json:"created"`
	Duplicates []DuplicateItem `json:"duplicates"`
	Errors     []ErrorItem     `json:"errors"`
	Skipped    []SkippedItem   `json:"skipped"`
}

// Classified returns how many items landed in any partition.
func (r *BatchResult) Classified() int {
	return len(r.Created) + len(r.Duplicates) + len(r.Errors) + len(r.Skipped)
}

// ProgressEvent is emitted after each candidate's final classification.
type ProgressEvent struct {
	Index  int        `json:"index"`
	Total  int        `json:"total"`
	Status ItemStatus `json:"status"`
	Item   Candidate  `json:"item"`
	ID     string     `json:"id,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// DuplicatePair links an existing ledger transaction to a later copy of it.
type DuplicatePair struct {
	Original  LedgerTransaction `json:"original"`
	Duplicate LedgerTransaction `json:"duplicate"`
}

// BulkError records a failed bulk edit of one transaction.
type BulkError struct {
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
	Attempts      int    `json:"attempts"`
}

// BulkResult summarises a bulk edit over existing transactions. For a
// complete run Succeeded and Errors together cover all Total ids.
type BulkResult struct {
	Operation  string      `json:"operation"`
	DryRun     bool        `json:"dry_run"`
	Total      int         `json:"total"`
	Processed  int         `json:"processed"`
	Complete   bool        `json:"complete"`
	HaltReason string      `json:"halt_reason,omitempty"`
	Succeeded  []string    `json:"succeeded"`
	Errors     []BulkError `json:"errors"`
}

// CategorizationRule maps a name pattern to a category name.
type CategorizationRule struct {
	Pattern  string `json:"pattern" yaml:"pattern"`
	Category string `json:"category" yaml:"category"`
	Priority int    `json:"priority" yaml:"priority"`
}

// Lookups is the entity part of an export snapshot.
type Lookups struct {
	Accounts   []Account  `json:"accounts"`
	Categories []Category `json:"categories"`
	Tags       []Tag      `json:"tags"`
}

// ExportSnapshot is a point-in-time backup of the remote ledger. Field
// names are part of the backup format and must not change.
type ExportSnapshot struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	Transactions []LedgerTransaction  `json:"transactions"`
	Lookups      Lookups              `json:"lookups"`
	Rules        []CategorizationRule `json:"rules,omitempty"`
}
