package binance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/jpillora/backoff"
)

// Exchange is the exchange name stored on instruments found on Binance
const Exchange = "BINANCE"

// maxAttempts bounds the retries of a single request
const maxAttempts = 3

// precisionFromTickSize returns the number of fractional digits of a tick
// size such as "0.01000000"
func precisionFromTickSize(tickSize string) int32 {
	trimmed := strings.TrimRight(tickSize, "0")
	if i := strings.IndexByte(trimmed, '.'); i > -1 {
		return int32(len(trimmed) - i - 1)
	}
	return 0
}

// setupBackoffRetry creates a backoff with sensible defaults
func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}
}

// retryable reports whether err is worth another attempt. API errors are
// answers from the exchange and are not retried.
func retryable(err error) bool {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// withRetry calls fn until it succeeds, fails with a non retryable error or
// runs out of attempts
func withRetry(ctx context.Context, fn func() error) error {
	b := setupBackoffRetry()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) || attempt == maxAttempts {
			return err
		}

		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
