package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("lead not found", nil)
	assert.Equal(t, "NOT_FOUND: lead not found", err.Error())

	cause := stderrors.New("connection refused")
	err = DatabaseError("failed to update lead", cause).WithOperation("AssignLeadToBuyer")
	assert.Equal(t, "AssignLeadToBuyer: DATABASE_ERROR: failed to update lead (caused by: connection refused)", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAppError_CallerLocation(t *testing.T) {
	err := InvalidInput("bad", nil)
	assert.Contains(t, err.File, "errors_test.go")
	assert.Greater(t, err.Line, 0)
}

func TestCodeAndIs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("duplicate deal", nil))

	assert.Equal(t, ErrCodeConflict, Code(wrapped))
	assert.True(t, Is(wrapped, ErrCodeConflict))
	assert.False(t, Is(wrapped, ErrCodeNotFound))
	assert.False(t, Is(nil, ErrCodeNotFound))
	assert.Equal(t, "", Code(stderrors.New("plain")))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "duplicate deal", appErr.Message)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(DatabaseError("x", nil)))
	assert.True(t, Retryable(Unavailable("x", nil)))
	assert.False(t, Retryable(NotFound("x", nil)))
	assert.False(t, Retryable(InvalidInput("x", nil)))
	assert.False(t, Retryable(stderrors.New("plain")))
}
