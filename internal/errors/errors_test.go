package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsDomainCode(t *testing.T) {
	inner := New(ErrCodeConflict, "case was modified concurrently")
	wrapped := Wrap(inner, ErrCodeInternal, "failed to update case")

	assert.Equal(t, ErrCodeConflict, wrapped.Code)
	assert.Same(t, inner, wrapped)
}

func TestWrapPlainError(t *testing.T) {
	cause := stderrors.New("connection reset")
	wrapped := Wrap(cause, ErrCodeStorageUnavailable, "failed to load case")

	assert.Equal(t, ErrCodeStorageUnavailable, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestCodeOfThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("case", "CASE20250101AB123C"))

	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.True(t, Is(err, ErrCodeNotFound))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeInvalidTransition, "no edge").WithDetail("allowed_transitions", []string{"Submitted"})

	var appErr *AppError
	require.True(t, As(err, &appErr))
	assert.Equal(t, []string{"Submitted"}, appErr.Details["allowed_transitions"])
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeMissingRequiredField, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeUnauthenticated, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeUnauthorized, http.StatusUnprocessableEntity},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDuplicateCaseID, http.StatusConflict},
		{ErrCodeInvalidTransition, http.StatusUnprocessableEntity},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeStorageUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}
