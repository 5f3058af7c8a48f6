// internal/common/errors/errors_test.go
package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeDatabaseConnectionFailed, 3},
		{ErrCodeQueryExecutionFailed, 3},
		{ErrCodeCandidateFetchFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodeMatchingCancelled, 2},
		{ErrCodeExternalService, 2},
		{ErrCodeGeocodeFailed, 1},
		{ErrCodeInvalidMatchInput, 0},
		{ErrCodeLoadNotFound, 0},
		{ErrCodeDriverNotFound, 0},
		{ErrorCode("SOMETHING_ELSE"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewLoadNotFoundError("load-42")

	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "LOAD_NOT_FOUND", bpmn.Code)
	assert.False(t, bpmn.Retryable)
	assert.Zero(t, bpmn.Retries)
	assert.Equal(t, "load-42", bpmn.ErrorVariables["loadId"])
	assert.Equal(t, "LOAD_NOT_FOUND", bpmn.ErrorVariables["originalErrorCode"])

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "LOAD_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, "load-42", vars["loadId"])
}

func TestConvertToBPMNError_ValidationSharesBoundaryCode(t *testing.T) {
	bpmn := ConvertToBPMNError(NewInputValidationFailedError("load: required"))
	assert.Equal(t, "INVALID_MATCH_INPUT", bpmn.Code)
}

func TestConvertToBPMNError_Retryable(t *testing.T) {
	bpmn := ConvertToBPMNError(NewCandidateFetchFailedError("drivers", fmt.Errorf("conn reset")))
	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 3, bpmn.Retries)
	assert.Equal(t, "conn reset", bpmn.Details)
}

func TestConvertToBPMNError_UnknownCodePassesThrough(t *testing.T) {
	bpmn := ConvertToBPMNError(&StandardError{Code: "CUSTOM", Message: "custom"})
	assert.Equal(t, "CUSTOM", bpmn.Code)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeDriverNotFound))
	assert.Equal(t, "GEOCODING", GetErrorCategory(ErrCodeGeocodeFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidMatchInput))
	assert.Equal(t, "MATCHING", GetErrorCategory(ErrCodeCandidateFetchFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeTimeout))
}

func TestWithMetadata(t *testing.T) {
	err := NewInvalidMatchInputError("missing load").WithMetadata("jobKey", int64(7))
	assert.Equal(t, int64(7), err.Metadata["jobKey"])
	assert.Contains(t, err.Error(), "INVALID_MATCH_INPUT")
}

func TestNormalizeError(t *testing.T) {

	t.Run("standard error is unwrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("ranking: %w", NewDriverNotFoundError("d-1"))
		got := normalize(wrapped)
		assert.Equal(t, ErrCodeDriverNotFound, got.Code)
	})

	t.Run("context cancellation", func(t *testing.T) {
		got := normalize(fmt.Errorf("rank: %w", context.Canceled))
		assert.Equal(t, ErrCodeMatchingCancelled, got.Code)
		assert.True(t, got.Retryable)
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		got := normalize(context.DeadlineExceeded)
		assert.Equal(t, ErrCodeMatchingCancelled, got.Code)
	})

	t.Run("plain error", func(t *testing.T) {
		got := normalize(fmt.Errorf("boom"))
		require.NotNil(t, got)
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, "boom", got.Details)
		assert.False(t, got.Retryable)
	})
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		jobRetries  int32
		err         error
		wantRetry   bool
		wantRetries int32
		wantBPMN    string
	}{
		{
			name:        "retryable uses code budget",
			jobRetries:  5,
			err:         NewCandidateFetchFailedError("driver", fmt.Errorf("conn reset")),
			wantRetry:   true,
			wantRetries: 3,
		},
		{
			name:        "budget capped by broker retries",
			jobRetries:  1,
			err:         NewCandidateFetchFailedError("driver", fmt.Errorf("conn reset")),
			wantRetry:   true,
			wantRetries: 1,
		},
		{
			name:       "no broker retries left throws",
			jobRetries: 0,
			err:        NewCandidateFetchFailedError("driver", fmt.Errorf("conn reset")),
		},
		{
			name:       "not found throws",
			jobRetries: 3,
			err:        NewLoadNotFoundError("load-1"),
			wantBPMN:   "LOAD_NOT_FOUND",
		},
		{
			name:        "cancellation retries",
			jobRetries:  3,
			err:         context.DeadlineExceeded,
			wantRetry:   true,
			wantRetries: 2,
		},
		{
			name:       "unknown error throws",
			jobRetries: 3,
			err:        fmt.Errorf("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.jobRetries, tt.err)
			require.NotNil(t, d.Err)
			require.NotNil(t, d.BPMN)
			assert.Equal(t, tt.wantRetry, d.Retry)
			assert.Equal(t, tt.wantRetries, d.Retries)
			if tt.wantBPMN != "" {
				assert.Equal(t, tt.wantBPMN, d.BPMN.Code)
			}
		})
	}
}

func TestErrorVariables(t *testing.T) {
	vars, ok := errorVariables(ConvertToBPMNError(NewDriverNotFoundError("d-9")))
	require.True(t, ok)
	assert.Contains(t, vars, "DRIVER_NOT_FOUND")
}
