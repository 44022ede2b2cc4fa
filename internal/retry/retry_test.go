package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/config"
	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
)

func fastConfig() *config.RetryConfig {
	return &config.RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  200 * time.Millisecond,
	}
}

func TestDoRetriesTransientErrorUntilSuccess(t *testing.T) {
	r := New(fastConfig())
	attempts := 0

	err := r.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return apperrors.NewUpstreamUnavailableError("temporarily down")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoStopsImmediatelyOnNonTransientError(t *testing.T) {
	r := New(fastConfig())
	attempts := 0

	err := r.Do(context.Background(), func() error {
		attempts++
		return apperrors.NewQuotaExceededError("over quota")
	})
	if err == nil {
		t.Fatal("expected the non-transient error to surface")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-transient error, got %d", attempts)
	}
}

func TestDoRetriesUnclassifiedErrors(t *testing.T) {
	r := New(fastConfig())
	attempts := 0
	plain := errors.New("connection reset")

	err := r.Do(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return plain
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected a plain error to be treated as transient and retried, got %d attempts", attempts)
	}
}

func TestDoWithResultReturnsValueOnSuccess(t *testing.T) {
	r := New(fastConfig())

	result, err := DoWithResult(context.Background(), r, func() (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result 'ok', got %q", result)
	}
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	r := New(fastConfig())
	attempts := 0

	err := r.Do(context.Background(), func() error {
		attempts++
		return apperrors.NewUpstreamTimeoutError("still down")
	})
	if err == nil {
		t.Fatal("expected the retryer to eventually give up and return an error")
	}
	if attempts < 2 {
		t.Errorf("expected more than one attempt before giving up, got %d", attempts)
	}
}
