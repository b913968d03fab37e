package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eaglenest7/infino/errs"
)

func TestWithRetry_SucceedsWithoutRetrying(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func(context.Context) error {
		calls++

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestWithRetry_RetriesTransientThenSucceeds(t *testing.T) {
	origBase, origCap := backoffBase, backoffCap
	backoffBase, backoffCap = time.Millisecond, 5*time.Millisecond
	t.Cleanup(func() { backoffBase, backoffCap = origBase, origCap })

	calls := 0
	err := withRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errs.New(nil, errs.StorageTransient, "transient glitch")
		}

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWithRetry_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func(context.Context) error {
		calls++

		return errs.New(nil, errs.SchemaError, "bad input")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, errs.SchemaError, errs.CodeOf(err))
}

func TestWithRetry_ExhaustsBudgetAndConvertsToPermanent(t *testing.T) {
	origBase, origCap := backoffBase, backoffCap
	backoffBase, backoffCap = time.Millisecond, 5*time.Millisecond
	t.Cleanup(func() { backoffBase, backoffCap = origBase, origCap })

	calls := 0
	err := withRetry(context.Background(), func(context.Context) error {
		calls++

		return errs.New(nil, errs.StorageTransient, "always fails")
	})
	require.Error(t, err)
	require.Equal(t, maxRetries+1, calls)
	require.Equal(t, errs.StoragePermanent, errs.CodeOf(err))
}

func TestWithRetry_ContextCancelledBeforeCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, func(context.Context) error {
		calls++

		return nil
	})
	require.Error(t, err)
	require.Equal(t, 0, calls)
	require.Equal(t, errs.Cancelled, errs.CodeOf(err))
}
