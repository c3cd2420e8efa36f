package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRetrier_Delay(t *testing.T) {
	retrier := NewRetrier(3, time.Second)
	retrier.random = func() float64 { return 0 }
	assert.Equal(t, 1*time.Second, retrier.Delay(1))
	assert.Equal(t, 2*time.Second, retrier.Delay(2))
	retrier.random = func() float64 { return 0.999999 }
	assert.InDelta(t, float64(4*time.Second), float64(retrier.Delay(2)), float64(time.Millisecond))
}

func TestRetrier_Do(t *testing.T) {
	var testCases = []struct {
		description string
		maxRetries  int
		err         error
		expectCalls int
	}{
		{description: "server retried", maxRetries: 2, err: &Error{Kind: KindServer}, expectCalls: 3},
		{description: "rate limit retried", maxRetries: 1, err: &Error{Kind: KindRateLimited}, expectCalls: 2},
		{description: "transport retried", maxRetries: 3, err: &Error{Kind: KindTransport}, expectCalls: 4},
		{description: "not found surfaced", maxRetries: 3, err: &Error{Kind: KindNotFound}, expectCalls: 1},
		{description: "plain error surfaced", maxRetries: 3, err: errors.New("boom"), expectCalls: 1},
		{description: "no retries", maxRetries: 0, err: &Error{Kind: KindServer}, expectCalls: 1},
	}
	for _, testCase := range testCases {
		retrier := NewRetrier(testCase.maxRetries, 0)
		var sleeps []time.Duration
		retrier.sleep = func(ctx context.Context, delay time.Duration) error {
			sleeps = append(sleeps, delay)
			return nil
		}
		calls := 0
		err := retrier.Do(context.Background(), "issues", func(ctx context.Context) error {
			calls++
			return testCase.err
		})
		assert.Same(t, testCase.err, err, testCase.description)
		assert.Equal(t, testCase.expectCalls, calls, testCase.description)
		assert.Len(t, sleeps, testCase.expectCalls-1, testCase.description)
	}
}

func TestRetrier_Cancellation(t *testing.T) {
	retrier := NewRetrier(5, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retrier.Do(ctx, "issues", func(ctx context.Context) error {
		calls++
		cancel()
		return &Error{Kind: KindServer}
	})
	assert.Equal(t, 1, calls)
	assert.True(t, IsKind(err, KindServer) || IsKind(err, KindTransport))
}

func TestProperty_RetryBudget(t *testing.T) {
	kinds := []Kind{KindValidation, KindAuthentication, KindPermission, KindNotFound, KindRateLimited, KindServer, KindTransport, KindUnknown}
	rapid.Check(t, func(t *rapid.T) {
		maxRetries := rapid.IntRange(0, 6).Draw(t, "maxRetries")
		failures := rapid.SliceOfN(rapid.SampledFrom(kinds), 0, 10).Draw(t, "failures")
		retrier := NewRetrier(maxRetries, 0)
		retrier.sleep = func(ctx context.Context, delay time.Duration) error { return nil }
		calls := 0
		_ = retrier.Do(context.Background(), "issues", func(ctx context.Context) error {
			defer func() { calls++ }()
			if calls < len(failures) {
				return &Error{Kind: failures[calls]}
			}
			return nil
		})
		if calls > maxRetries+1 {
			t.Fatalf("calls %d exceed budget %d", calls, maxRetries+1)
		}
		for i := 0; i < calls-1; i++ {
			if !failures[i].Retryable() {
				t.Fatalf("retried after non-retryable kind %v", failures[i])
			}
		}
	})
}
