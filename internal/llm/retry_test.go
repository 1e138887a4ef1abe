package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}},
		MockResponse{Content: json.RawMessage(`"ok"`)},
	)
	p := WithRetry(mock, fastRetry(3))

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(resp.Content))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(`"never"`)},
	)
	p := WithRetry(mock, fastRetry(2))

	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryInvalidResponseOnlyOnce(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad shape")}},
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad shape")}},
		MockResponse{Content: json.RawMessage(`"never"`)},
	)
	p := WithRetry(mock, fastRetry(5))

	_, err := p.Generate(context.Background(), Request{})
	assert.True(t, IsInvalidResponse(err))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryDoesNotRetryMaxTokens(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}})
	p := WithRetry(mock, fastRetry(3))

	_, err := p.Generate(context.Background(), Request{})
	var mt *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &mt)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryStopsOnCancellation(t *testing.T) {
	mock := NewMockProvider(MockResponse{Delay: time.Second, Content: json.RawMessage(`"late"`)})
	p := WithRetry(mock, fastRetry(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithRetryClampsAttempts(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: errors.New("boom")})
	p := WithRetry(mock, RetryConfig{MaxAttempts: 0})

	_, err := p.Generate(context.Background(), Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestBackoffHonorsRetryAfter(t *testing.T) {
	r := &RetryProvider{config: fastRetry(3)}
	got := r.backoff(0, &ErrRateLimit{RetryAfter: 42 * time.Millisecond})
	assert.Equal(t, 42*time.Millisecond, got)

	got = r.backoff(10, errors.New("x"))
	assert.LessOrEqual(t, got, 6*time.Millisecond)
}

func TestTimeoutProvider(t *testing.T) {
	mock := NewMockProvider(MockResponse{Delay: time.Second, Content: json.RawMessage(`"late"`)})
	p := WithTimeout(mock, 10*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Same(t, mock, WithTimeout(mock, 0))
}
