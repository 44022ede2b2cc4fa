// Package retry wraps upstream collaborator calls (embedder, reranker, LLM,
// cache) in exponential backoff with jitter per §7: bounded attempts, retry
// only on transient error kinds.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/raghavpatnecha/ragserve/internal/config"
	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
)

// Retryer wraps an operation with exponential backoff, retrying AppErrors of
// a transient kind (UpstreamUnavailable, UpstreamTimeout, TooManyRequests)
// and errors that carry no AppError kind, and giving up immediately on any
// other AppError.
type Retryer struct {
	cfg *config.RetryConfig
}

func New(cfg *config.RetryConfig) *Retryer {
	return &Retryer{cfg: cfg}
}

func (r *Retryer) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = orDefault(r.cfg.InitialInterval, 100*time.Millisecond)
	b.MaxInterval = orDefault(r.cfg.MaxInterval, 10*time.Second)
	b.MaxElapsedTime = orDefault(r.cfg.MaxElapsedTime, 30*time.Second)

	maxRetries := r.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	// MaxRetries bounds the total number of attempts, the first call included.
	var bo backoff.BackOff = backoff.WithMaxRetries(b, uint64(maxRetries-1))
	return backoff.WithContext(bo, ctx)
}

// Do retries operation, stopping immediately (no retry) if the error isn't
// one of §7's transient kinds.
func (r *Retryer) Do(ctx context.Context, operation func() error) error {
	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, r.newBackOff(ctx))
}

// DoWithResult is Do's generic counterpart for operations that return a
// value alongside an error.
func DoWithResult[T any](ctx context.Context, r *Retryer, operation func() (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func() error {
		var opErr error
		result, opErr = operation()
		return opErr
	})
	return result, err
}

func isTransient(err error) bool {
	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		// Collaborator errors that don't already carry an AppError kind are
		// assumed transient (network/timeout-shaped) — the alternative is
		// silently never retrying third-party client errors, which defeats
		// the point of wrapping them here.
		return true
	}
	return appErr.Retryable()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
