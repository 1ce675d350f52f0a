package usecase

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ledger-reconciliation/internal/domain"
)

// TimerSleeper waits on a real timer.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsTransient reports whether err is worth retrying. Typed execution errors
// decide for themselves; otherwise network errors, deadlines and messages
// mentioning the network count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var transient *domain.TransientExecutionError
	if errors.As(err, &transient) {
		return true
	}
	var permanent *domain.PermanentExecutionError
	if errors.As(err, &permanent) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "network")
}

// retryPolicy runs a remote call up to 1+maxRetries times, waiting delay
// between attempts. Only transient errors are retried.
type retryPolicy struct {
	maxRetries int
	delay      time.Duration
	sleeper    Sleeper
	logger     zerolog.Logger
}

func withRetry[T any](ctx context.Context, p retryPolicy, call func(context.Context) (T, error)) (T, int, error) {
	var zero T
	attempts := 0
	for {
		attempts++
		v, err := call(ctx)
		if err == nil {
			return v, attempts, nil
		}
		if !IsTransient(err) || attempts > p.maxRetries {
			return zero, attempts, err
		}
		p.logger.Warn().Err(err).
			Int("attempt", attempts).
			Int("retries_left", p.maxRetries-attempts+1).
			Msg("transient failure, retrying")
		if serr := p.sleeper.Sleep(ctx, p.delay); serr != nil {
			return zero, attempts, err
		}
	}
}
