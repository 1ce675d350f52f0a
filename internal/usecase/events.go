package usecase

import (
	"context"

	"ledger-reconciliation/internal/domain"
)

// StreamResult is the final outcome of a streamed import.
type StreamResult struct {
	Result *domain.BatchResult
	Err    error
}

// Stream runs Import in a separate goroutine. Every progress event is sent
// on the first channel, which is closed when the run ends; the single
// outcome is then delivered on the second. The configured OnProgress
// callback is still called.
func (uc *ReconciliationUseCase) Stream(ctx context.Context, candidates []domain.Candidate) (<-chan domain.ProgressEvent, <-chan StreamResult) {
	events := make(chan domain.ProgressEvent, len(candidates))
	done := make(chan StreamResult, 1)

	go func() {
		defer close(done)
		result, err := uc.run(ctx, candidates, func(ev domain.ProgressEvent) {
			events <- ev
			if uc.cfg.OnProgress != nil {
				uc.cfg.OnProgress(ev)
			}
		})
		close(events)
		done <- StreamResult{Result: result, Err: err}
	}()

	return events, done
}
