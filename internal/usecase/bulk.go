package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ledger-reconciliation/internal/domain"
)

const (
	OperationUpdateCategory = "update_category"
	OperationAddTag         = "add_tag"
	OperationDelete         = "delete"
)

// UpdateCategory moves every transaction in ids to the named category.
func (uc *ReconciliationUseCase) UpdateCategory(ctx context.Context, ids []string, categoryName string) (*domain.BulkResult, error) {
	return uc.bulk(ctx, OperationUpdateCategory, ids, func(idx *Index) (bulkCall, error) {
		categoryID, ok := idx.Resolve(KindCategory, categoryName, "")
		if !ok {
			return nil, &domain.ResolutionError{Kind: string(KindCategory), Ref: categoryName}
		}
		return func(ctx context.Context, id string) error {
			_, err := uc.executor.UpdateTransaction(ctx, id, domain.TransactionUpdate{CategoryID: &categoryID})
			return err
		}, nil
	})
}

// AddTag attaches the named tag to every transaction in ids. Existing tags
// are kept.
func (uc *ReconciliationUseCase) AddTag(ctx context.Context, ids []string, tagName string) (*domain.BulkResult, error) {
	return uc.bulk(ctx, OperationAddTag, ids, func(idx *Index) (bulkCall, error) {
		tagID, ok := idx.Resolve(KindTag, tagName, "")
		if !ok {
			return nil, &domain.ResolutionError{Kind: string(KindTag), Ref: tagName}
		}
		return func(ctx context.Context, id string) error {
			_, err := uc.executor.UpdateTransaction(ctx, id, domain.TransactionUpdate{AddTagIDs: []string{tagID}})
			return err
		}, nil
	})
}

// DeleteTransactions removes every transaction in ids.
func (uc *ReconciliationUseCase) DeleteTransactions(ctx context.Context, ids []string) (*domain.BulkResult, error) {
	return uc.bulk(ctx, OperationDelete, ids, func(*Index) (bulkCall, error) {
		return func(ctx context.Context, id string) error {
			return uc.executor.DeleteTransaction(ctx, id)
		}, nil
	})
}

type bulkCall func(ctx context.Context, id string) error

// bulk applies one edit per transaction, sequentially, with the same pacing
// and retry rules as an import. In dry-run mode each id is only checked
// against the ledger snapshot.
func (uc *ReconciliationUseCase) bulk(ctx context.Context, op string, ids []string, prepare func(*Index) (bulkCall, error)) (*domain.BulkResult, error) {
	if len(ids) == 0 {
		return nil, ErrNoTransactionIDs
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
	call, err := prepare(BuildIndex(snapshot.accounts, snapshot.categories, snapshot.tags))
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(snapshot.transactions))
	for _, tx := range snapshot.transactions {
		known[tx.ID] = true
	}

	result := &domain.BulkResult{
		Operation: op,
		DryRun:    uc.cfg.DryRun,
		Total:     len(ids),
		Succeeded: make([]string, 0, len(ids)),
		Errors:    make([]domain.BulkError, 0),
	}
	logger := uc.loggerFor(ctx).With().Str("operation", op).Bool("dry_run", uc.cfg.DryRun).Logger()

	for i, id := range ids {
		if ctx.Err() != nil {
			result.HaltReason = HaltCancelled
			break
		}
		id = strings.TrimSpace(id)
		result.Processed++

		if uc.cfg.DryRun {
			if !known[id] {
				result.Errors = append(result.Errors, domain.BulkError{TransactionID: id, Message: "transaction not found"})
				continue
			}
			result.Succeeded = append(result.Succeeded, id)
			continue
		}

		attempts, err := uc.applyOne(ctx, logger, id, call)
		if err != nil {
			logger.Error().Err(err).Str("id", id).Int("attempts", attempts).Msg("bulk edit failed")
			result.Errors = append(result.Errors, domain.BulkError{TransactionID: id, Message: err.Error(), Attempts: attempts})
		} else {
			logger.Debug().Str("id", id).Msg("bulk edit applied")
			result.Succeeded = append(result.Succeeded, id)
		}

		if i < len(ids)-1 {
			if err := uc.sleeper.Sleep(ctx, uc.cfg.PaceDelay); err != nil {
				result.HaltReason = HaltCancelled
				break
			}
		}
	}
	result.Complete = result.HaltReason == ""

	logger.Info().
		Int("total", result.Total).
		Int("processed", result.Processed).
		Int("succeeded", len(result.Succeeded)).
		Int("errors", len(result.Errors)).
		Bool("complete", result.Complete).
		Str("halt_reason", result.HaltReason).
		Msg("bulk edit finished")
	return result, nil
}

func (uc *ReconciliationUseCase) applyOne(ctx context.Context, logger zerolog.Logger, id string, call bulkCall) (int, error) {
	_, attempts, err := withRetry(ctx, uc.retryPolicy(logger.With().Str("id", id).Logger()), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx, id)
	})
	return attempts, err
}
