package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"user not found is a business error", NewUserNotFoundError(42), "USER_NOT_FOUND", 0},
		{"collaborator failure retries", NewCollaboratorError(fmt.Errorf("db down")), "RECOMMENDATION_LOOKUP_FAILED", 3},
		{"ai provider failure", NewAIProviderError(fmt.Errorf("500")), "AI_PROVIDER_FAILED", 2},
		{"ai provider timeout", NewAIProviderTimeoutError(), "AI_PROVIDER_TIMEOUT", 1},
		{"digest send failure", NewDigestSendFailedError("a@b.c", fmt.Errorf("ses")), "DIGEST_SEND_FAILED", 3},
		{"invalid request", NewInvalidRequestError("limit"), "INVALID_REQUEST", 0},
		{"unknown code falls back to itself", &StandardError{Code: "SOMETHING_ELSE", Retryable: true}, "SOMETHING_ELSE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverridesCode(t *testing.T) {
	stdErr := NewCollaboratorError(fmt.Errorf("x"))
	stdErr.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	bpmn := ConvertToBPMNError(NewUserNotFoundError(7))
	vars := bpmn.ToErrorVariables()

	assert.Equal(t, int64(7), vars["userId"])
	assert.Equal(t, "USER_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars["errorDetails"], "user 7")
}

func TestNormalize(t *testing.T) {
	stdErr := NewAccessDeniedError("not owner")
	wrapped := fmt.Errorf("handler: %w", stdErr)

	assert.Same(t, stdErr, Normalize(wrapped))

	plain := Normalize(fmt.Errorf("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestHTTPStatus(t *testing.T) {
	tests := map[ErrorCode]int{
		ErrCodeUserNotFound:               http.StatusNotFound,
		ErrCodeAccessDenied:               http.StatusForbidden,
		ErrCodeUnauthorized:               http.StatusUnauthorized,
		ErrCodeInvalidRequest:             http.StatusBadRequest,
		ErrCodeAIProviderTimeout:          http.StatusGatewayTimeout,
		ErrCodeRecommendationLookupFailed: http.StatusInternalServerError,
		ErrCodeInternal:                   http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeUserNotFound:                  "AUTH/USER",
		ErrCodeAccessDenied:                  "AUTH/USER",
		ErrCodeRecommendationLookupFailed:    "RECOMMENDATION",
		ErrCodeDatabaseConnectionFailed:      "DATABASE",
		ErrCodeQueryExecutionFailed:          "DATABASE",
		ErrCodeElasticsearchConnectionFailed: "SEARCH",
		ErrCodeSearchQueryFailed:             "SEARCH",
		ErrCodeDigestSendFailed:              "NOTIFICATION",
		ErrCodeAIProviderFailed:              "AI",
		ErrCodeInvalidRequest:                "VALIDATION",
		ErrCodeInternal:                      "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), code)
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeRecommendationLookupFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeUserNotFound))
	assert.False(t, IsRetryableErrorCode(ErrCodeAccessDenied))
}
