package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ledger-reconciliation/internal/domain"
	"ledger-reconciliation/internal/logger"
)

// Call-level misuse. Per-item problems never surface as errors.
var (
	ErrNoCandidates     = errors.New("no transactions provided")
	ErrNoLedgerStore    = errors.New("ledger store is required")
	ErrNoExecutor       = errors.New("mutation executor is required for a live run")
	ErrNoTransactionIDs = errors.New("no transaction IDs provided")
)

const (
	HaltStoppedOnDuplicate = "stopped on duplicate"
	HaltCancelled          = "cancelled"
)

// Config controls one ReconciliationUseCase. Use DefaultConfig as a base.
type Config struct {
	// DryRun classifies everything without calling the mutation executor.
	DryRun bool
	// MaxRetries is the number of extra attempts after a transient failure.
	MaxRetries int
	// RetryDelay is the wait before each retry.
	RetryDelay time.Duration
	// PaceDelay is the wait between items in a live run.
	PaceDelay          time.Duration
	StopOnDuplicate    bool
	SkipDuplicateCheck bool
	// DefaultCategory is used for REGULAR transactions whose category
	// cannot be resolved. Empty disables the fallback.
	DefaultCategory string
	Fingerprint     FingerprintOptions
	// OnProgress is called synchronously after each item is classified.
	OnProgress func(domain.ProgressEvent)
}

// DefaultConfig returns the safe defaults: dry run, three retries.
func DefaultConfig() Config {
	return Config{
		DryRun:          true,
		MaxRetries:      3,
		RetryDelay:      time.Second,
		PaceDelay:       300 * time.Millisecond,
		DefaultCategory: "Other",
	}
}

// Option customises a ReconciliationUseCase.
type Option func(*ReconciliationUseCase)

// WithLogger sets the logger for every call. Without it each call logs to
// the logger carried by its context, or nowhere.
func WithLogger(l zerolog.Logger) Option {
	return func(uc *ReconciliationUseCase) {
		uc.logger = l
		uc.loggerSet = true
	}
}

// WithSleeper replaces the real timer used for pacing and retries.
func WithSleeper(s Sleeper) Option {
	return func(uc *ReconciliationUseCase) { uc.sleeper = s }
}

// WithRules sets the categorization rules used when a REGULAR candidate
// has no category of its own.
func WithRules(r *Rules) Option {
	return func(uc *ReconciliationUseCase) { uc.rules = r }
}

// WithVersion sets the version string written into exports.
func WithVersion(v string) Option {
	return func(uc *ReconciliationUseCase) { uc.version = v }
}

// WithClock replaces time.Now for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(uc *ReconciliationUseCase) { uc.now = now }
}

// ReconciliationUseCase imports candidate transactions into the remote
// ledger without creating duplicates, and offers audit, export and bulk
// edit operations over the same ledger.
type ReconciliationUseCase struct {
	store     LedgerStore
	executor  MutationExecutor
	cfg       Config
	dupIndex  *DuplicateIndex
	rules     *Rules
	sleeper   Sleeper
	logger    zerolog.Logger
	loggerSet bool
	version   string
	now       func() time.Time
}

// NewReconciliationUseCase creates a new instance of the usecase. executor
// may be nil when only dry runs, audits and exports are needed.
func NewReconciliationUseCase(store LedgerStore, executor MutationExecutor, cfg Config, opts ...Option) *ReconciliationUseCase {
	uc := &ReconciliationUseCase{
		store:    store,
		executor: executor,
		cfg:      cfg,
		dupIndex: NewDuplicateIndex(cfg.Fingerprint),
		rules:    NewRules(),
		sleeper:  TimerSleeper{},
		logger:   zerolog.Nop(),
		version:  "dev",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type ledgerSnapshot struct {
	accounts     []domain.Account
	categories   []domain.Category
	tags         []domain.Tag
	transactions []domain.LedgerTransaction
}

func (uc *ReconciliationUseCase) loadSnapshot(ctx context.Context) (*ledgerSnapshot, error) {
	var (
		s   ledgerSnapshot
		err error
	)
	if s.accounts, err = uc.store.ListAccounts(ctx); err != nil {
		return nil, fmt.Errorf("could not get accounts: %w", err)
	}
	if s.categories, err = uc.store.ListCategories(ctx); err != nil {
		return nil, fmt.Errorf("could not get categories: %w", err)
	}
	if s.tags, err = uc.store.ListTags(ctx); err != nil {
		return nil, fmt.Errorf("could not get tags: %w", err)
	}
	if s.transactions, err = uc.store.ListTransactions(ctx); err != nil {
		return nil, fmt.Errorf("could not get transactions: %w", err)
	}
	return &s, nil
}

func (uc *ReconciliationUseCase) loggerFor(ctx context.Context) zerolog.Logger {
	if uc.loggerSet {
		return uc.logger
	}
	return logger.FromContextOr(ctx, uc.logger)
}

func (uc *ReconciliationUseCase) retryPolicy(logger zerolog.Logger) retryPolicy {
	return retryPolicy{
		maxRetries: uc.cfg.MaxRetries,
		delay:      uc.cfg.RetryDelay,
		sleeper:    uc.sleeper,
		logger:     logger,
	}
}

// Import classifies every candidate in input order and, unless the use case
// is in dry-run mode, creates the ones that are valid and not duplicates.
// The ledger is read once at the start; duplicates within the batch are
// caught by tracking fingerprints as items are created.
func (uc *ReconciliationUseCase) Import(ctx context.Context, candidates []domain.Candidate) (*domain.BatchResult, error) {
	return uc.run(ctx, candidates, uc.cfg.OnProgress)
}

func (uc *ReconciliationUseCase) run(ctx context.Context, candidates []domain.Candidate, notify func(domain.ProgressEvent)) (*domain.BatchResult, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if uc.store == nil {
		return nil, ErrNoLedgerStore
	}
	if !uc.cfg.DryRun && uc.executor == nil {
		return nil, ErrNoExecutor
	}

	snapshot, err := uc.loadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load ledger snapshot: %w", err)
	}

	result := &domain.BatchResult{
		RunID:      uuid.NewString(),
		DryRun:     uc.cfg.DryRun,
		Total:      len(candidates),
		Created:    make([]domain.CreatedItem, 0),
		Duplicates: make([]domain.DuplicateItem, 0),
		Errors:     make([]domain.ErrorItem, 0),
		Skipped:    make([]domain.SkippedItem, 0),
	}
	logger := uc.loggerFor(ctx).With().Str("run_id", result.RunID).Bool("dry_run", result.DryRun).Logger()
	logger.Info().
		Int("total", result.Total).
		Int("existing_transactions", len(snapshot.transactions)).
		Msg("import started")

	b := &batch{
		uc:     uc,
		index:  BuildIndex(snapshot.accounts, snapshot.categories, snapshot.tags),
		seen:   newFingerprintSet(uc.dupIndex, snapshot.transactions),
		result: result,
		logger: logger,
	}

	for i, c := range candidates {
		if ctx.Err() != nil {
			result.HaltReason = HaltCancelled
			break
		}

		ev := b.process(ctx, i, c)
		result.Processed++
		uc.emit(logger, notify, ev)

		if ev.Status == domain.StatusDuplicate && uc.cfg.StopOnDuplicate {
			result.HaltReason = HaltStoppedOnDuplicate
			logger.Warn().Int("index", i).Msg("stopping on duplicate")
			break
		}
		if !uc.cfg.DryRun && i < len(candidates)-1 {
			if err := uc.sleeper.Sleep(ctx, uc.cfg.PaceDelay); err != nil {
				result.HaltReason = HaltCancelled
				break
			}
		}
	}
	result.Complete = result.HaltReason == ""

	logger.Info().
		Int("processed", result.Processed).
		Int("created", len(result.Created)).
		Int("duplicates", len(result.Duplicates)).
		Int("errors", len(result.Errors)).
		Int("skipped", len(result.Skipped)).
		Bool("complete", result.Complete).
		Str("halt_reason", result.HaltReason).
		Msg("import finished")

	return result, nil
}

// emit shields the pipeline from the progress callback.
func (uc *ReconciliationUseCase) emit(logger zerolog.Logger, notify func(domain.ProgressEvent), ev domain.ProgressEvent) {
	if notify == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Int("index", ev.Index).Msg("progress callback panicked")
		}
	}()
	notify(ev)
}

// batch holds the state of a single Import invocation.
type batch struct {
	uc     *ReconciliationUseCase
	index  *Index
	seen   *fingerprintSet
	result *domain.BatchResult
	logger zerolog.Logger
}

type resolution struct {
	accountID      string
	categoryID     string
	tagIDs         []string
	unresolvedTags []string
}

func (b *batch) process(ctx context.Context, i int, c domain.Candidate) domain.ProgressEvent {
	ev := domain.ProgressEvent{Index: i, Total: b.result.Total, Item: c}
	logger := b.logger.With().Int("index", i).Str("name", c.Name).Logger()

	if msg := validateCandidate(c); msg != "" {
		b.reject(&ev, c, domain.StatusInvalid, msg, 0)
		logger.Warn().Str("reason", msg).Msg("invalid candidate")
		return ev
	}

	if c.Amount.Decimal.IsZero() {
		b.result.Skipped = append(b.result.Skipped, domain.SkippedItem{Index: i, Candidate: c, Reason: "zero amount"})
		ev.Status = domain.StatusSkipped
		logger.Debug().Msg("skipping zero amount")
		return ev
	}

	res, err := b.resolve(c)
	if err != nil {
		b.reject(&ev, c, domain.StatusInvalid, err.Error(), 0)
		logger.Warn().Err(err).Msg("could not resolve candidate")
		return ev
	}

	if name, ok := b.index.Name(KindAccount, res.accountID); ok {
		logger = logger.With().Str("account", name).Logger()
	}

	fingerprint := b.uc.dupIndex.Fingerprint(c.Date, c.Name, c.Amount.Decimal, res.accountID)
	if !b.uc.cfg.SkipDuplicateCheck {
		if match, ok := b.seen.lookup(fingerprint); ok {
			b.result.Duplicates = append(b.result.Duplicates, domain.DuplicateItem{
				Index:         i,
				Candidate:     c,
				Existing:      match.tx,
				ExistingIndex: match.index,
				Fingerprint:   fingerprint,
			})
			ev.Status = domain.StatusDuplicate
			ev.ID = match.tx.ID
			ev.Error = domain.ErrDuplicateDetected.Error()
			logger.Info().Str("existing_id", match.tx.ID).Int("existing_index", match.index).Msg("duplicate")
			return ev
		}
	}

	input := domain.CreateTransactionInput{
		Date:       strings.TrimSpace(c.Date),
		Name:       strings.TrimSpace(c.Name),
		Amount:     c.Amount.Decimal,
		AccountID:  res.accountID,
		CategoryID: res.categoryID,
		TagIDs:     res.tagIDs,
		Note:       c.Note,
		Type:       c.TransactionType(),
	}
	created := domain.CreatedItem{
		Index:          i,
		Candidate:      c,
		AccountID:      res.accountID,
		CategoryID:     res.categoryID,
		TagIDs:         res.tagIDs,
		UnresolvedTags: res.unresolvedTags,
		Fingerprint:    fingerprint,
	}

	if b.uc.cfg.DryRun {
		b.seen.add(fingerprint, pendingTransaction(input), i)
		b.result.Created = append(b.result.Created, created)
		ev.Status = domain.StatusWouldCreate
		logger.Info().Str("amount", input.Amount.String()).Msg("would create")
		return ev
	}

	tx, attempts, err := withRetry(ctx, b.uc.retryPolicy(logger), func(ctx context.Context) (domain.LedgerTransaction, error) {
		return b.uc.executor.CreateTransaction(ctx, input)
	})
	if err != nil {
		b.reject(&ev, c, domain.StatusFailed, err.Error(), attempts)
		logger.Error().Err(err).Int("attempts", attempts).Msg("create failed")
		return ev
	}

	b.seen.add(fingerprint, tx, i)
	created.ID = tx.ID
	created.Attempts = attempts
	b.result.Created = append(b.result.Created, created)
	ev.Status = domain.StatusCreated
	ev.ID = tx.ID
	logger.Info().Str("id", tx.ID).Int("attempts", attempts).Msg("created")
	return ev
}

func (b *batch) reject(ev *domain.ProgressEvent, c domain.Candidate, status domain.ItemStatus, msg string, attempts int) {
	b.result.Errors = append(b.result.Errors, domain.ErrorItem{
		Index:     ev.Index,
		Candidate: c,
		Status:    status,
		Message:   msg,
		Attempts:  attempts,
	})
	ev.Status = status
	ev.Error = msg
}

func validateCandidate(c domain.Candidate) string {
	var missing []string
	if strings.TrimSpace(c.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if !c.Amount.Valid {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(c.AccountRef) == "" && strings.TrimSpace(c.AccountMask) == "" && strings.TrimSpace(c.AccountID) == "" {
		missing = append(missing, "account")
	}
	if len(missing) > 0 {
		return "missing required field: " + strings.Join(missing, ", ")
	}
	return ""
}

// resolve maps the candidate's references to IDs. Only the account is
// required; categories fall back to rules, then to the default category,
// and only for REGULAR transactions.
func (b *batch) resolve(c domain.Candidate) (resolution, error) {
	var res resolution

	res.accountID = strings.TrimSpace(c.AccountID)
	if res.accountID != "" && !b.index.Has(KindAccount, res.accountID) {
		return res, &domain.ResolutionError{Kind: string(KindAccount), Ref: res.accountID}
	}
	if res.accountID == "" {
		id, ok := b.index.Resolve(KindAccount, c.AccountRef, c.AccountMask)
		if !ok {
			ref := c.AccountRef
			if strings.TrimSpace(ref) == "" {
				ref = c.AccountMask
			}
			return res, &domain.ResolutionError{Kind: string(KindAccount), Ref: ref}
		}
		res.accountID = id
	}

	categoryRef := strings.TrimSpace(c.CategoryRef)
	if c.TransactionType() == domain.TransactionTypeRegular {
		if categoryRef == "" {
			if suggested, ok := b.uc.rules.Suggest(c.Name); ok {
				categoryRef = suggested
			}
		}
		id, ok := b.index.Resolve(KindCategory, categoryRef, "")
		if !ok && b.uc.cfg.DefaultCategory != "" {
			if categoryRef != "" {
				b.logger.Debug().Str("category", categoryRef).Str("fallback", b.uc.cfg.DefaultCategory).Msg("category not found, using default")
			}
			id, ok = b.index.Resolve(KindCategory, b.uc.cfg.DefaultCategory, "")
		}
		if ok {
			res.categoryID = id
		}
	} else if categoryRef != "" {
		if id, ok := b.index.Resolve(KindCategory, categoryRef, ""); ok {
			res.categoryID = id
		}
	}

	for _, ref := range c.TagRefs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		if id, ok := b.index.Resolve(KindTag, ref, ""); ok {
			res.tagIDs = append(res.tagIDs, id)
		} else {
			res.unresolvedTags = append(res.unresolvedTags, ref)
		}
	}
	return res, nil
}

// pendingTransaction stands in for a dry-run "would create" item so later
// items in the same run can be reported against it.
func pendingTransaction(input domain.CreateTransactionInput) domain.LedgerTransaction {
	return domain.LedgerTransaction{
		Date:       input.Date,
		Name:       input.Name,
		Amount:     input.Amount,
		AccountID:  input.AccountID,
		CategoryID: input.CategoryID,
		TagIDs:     input.TagIDs,
		Note:       input.Note,
		Type:       input.Type,
	}
}
