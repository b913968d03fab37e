package index

import (
	"context"
	"time"

	"github.com/eaglenest7/infino/errs"
)

const maxRetries = 5

// backoffBase and backoffCap are vars, not consts, so tests can shrink them
// to avoid real sleeps while exercising the retry-exhaustion path.
var (
	backoffBase = 1 * time.Second
	backoffCap  = 30 * time.Second
)

// withRetry retries fn while it fails with a StorageTransient error, using
// exponential backoff from backoffBase capped at backoffCap. A persistent
// StorageTransient failure after maxRetries retries (maxRetries+1 calls
// to fn in all) is converted to
// StoragePermanent; any other error (or a context cancellation) returns
// immediately.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	delay := backoffBase

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return errs.New(err, errs.Cancelled, "index: operation cancelled")
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if errs.CodeOf(err) != errs.StorageTransient {
			return err
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return errs.New(ctx.Err(), errs.Cancelled, "index: operation cancelled during retry backoff")
		case <-timer.C:
		}

		delay *= 2
		if delay > backoffCap {
			delay = backoffCap
		}
	}

	return errs.New(lastErr, errs.StoragePermanent, "index: exceeded retry budget for transient storage error")
}
