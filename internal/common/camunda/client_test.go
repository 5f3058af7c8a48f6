// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("rpc error: code = Unavailable")))
	assert.True(t, isRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.True(t, isRetryableZeebeError(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryableZeebeError(errors.New("job not found")))
	assert.False(t, isRetryableZeebeError(nil))
}

func TestExecuteWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	c := newTestClient()
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("connection reset by peer")
		}
		return "ok", nil
	}, "complete-job")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestExecuteWithRetry_PermanentErrorIsNotRetried(t *testing.T) {
	c := newTestClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("job not found")
	}, "complete-job")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeExternalService, stdErr.Code)
}

func TestExecuteWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	c := newTestClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("deadline exceeded")
	}, "fail-job")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeTimeout, stdErr.Code)
	assert.Contains(t, stdErr.Details, "after 2 attempts")
}

func TestExecuteWithRetry_StopsOnCancellation(t *testing.T) {
	c := newTestClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		cancel()
		return nil, errors.New("unavailable")
	}, "complete-job")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
