package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefault(t *testing.T) {
	assert.Equal(t, KindPermanentForFile, Classify(errors.New("boom")))
}

func TestAsKindDoesNotDoubleWrap(t *testing.T) {
	err := AsKind(KindFatal, errors.New("boom"))
	wrapped := AsKind(KindFatal, err)
	assert.Same(t, err, wrapped)
	assert.Equal(t, KindFatal, Classify(wrapped))
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return AsKind(KindTransient, errors.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoDoesNotRetryPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return AsKind(KindPermanentForFile, errors.New("gone"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return AsKind(KindTransient, errors.New("still flaky"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, Options{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return AsKind(KindTransient, errors.New("flaky"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
