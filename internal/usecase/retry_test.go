package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"ledger-reconciliation/internal/domain"
)

type recordingSleeper struct {
	calls []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "typed transient", err: &domain.TransientExecutionError{Err: errors.New("reset")}, want: true},
		{name: "typed permanent mentioning network", err: &domain.PermanentExecutionError{Err: errors.New("Network policy rejected")}, want: false},
		{name: "wrapped transient", err: fmt.Errorf("create: %w", &domain.TransientExecutionError{Err: errors.New("x")}), want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "net error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "network message", err: errors.New("Network request failed"), want: true},
		{name: "validation message", err: errors.New("invalid amount"), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	transient := &domain.TransientExecutionError{Err: errors.New("Network timeout")}
	permanent := &domain.PermanentExecutionError{Err: errors.New("bad request")}

	tests := []struct {
		name         string
		maxRetries   int
		failures     []error
		wantAttempts int
		wantErr      error
		wantSleeps   int
	}{
		{name: "first try", maxRetries: 3, wantAttempts: 1, wantSleeps: 0},
		{name: "recovers after two transient failures", maxRetries: 3, failures: []error{transient, transient}, wantAttempts: 3, wantSleeps: 2},
		{name: "exhausts retries", maxRetries: 2, failures: []error{transient, transient, transient, transient}, wantAttempts: 3, wantErr: transient, wantSleeps: 2},
		{name: "permanent fails immediately", maxRetries: 3, failures: []error{permanent}, wantAttempts: 1, wantErr: permanent, wantSleeps: 0},
		{name: "no retries configured", maxRetries: 0, failures: []error{transient}, wantAttempts: 1, wantErr: transient, wantSleeps: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			policy := retryPolicy{maxRetries: tt.maxRetries, delay: time.Second, sleeper: sleeper, logger: zerolog.Nop()}

			calls := 0
			got, attempts, err := withRetry(context.Background(), policy, func(context.Context) (string, error) {
				calls++
				if calls <= len(tt.failures) {
					return "", tt.failures[calls-1]
				}
				return "ok", nil
			})

			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.wantAttempts, calls)
			assert.Len(t, sleeper.calls, tt.wantSleeps)
			for _, d := range sleeper.calls {
				assert.Equal(t, time.Second, d)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "ok", got)
		})
	}
}

func TestWithRetry_StopsWhenSleepIsInterrupted(t *testing.T) {
	transient := &domain.TransientExecutionError{Err: errors.New("reset")}
	sleeper := &recordingSleeper{err: context.Canceled}
	policy := retryPolicy{maxRetries: 5, delay: time.Second, sleeper: sleeper, logger: zerolog.Nop()}

	_, attempts, err := withRetry(context.Background(), policy, func(context.Context) (int, error) {
		return 0, transient
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, transient)
}

func TestTimerSleeper(t *testing.T) {
	s := TimerSleeper{}

	assert.NoError(t, s.Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, s.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, s.Sleep(ctx, 0), context.Canceled)
}
