package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WithError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := ErrInvalidJSON.WithError(cause)

	assert.Equal(t, "INVALID_JSON", err.Code)
	assert.Equal(t, 400, err.StatusCode)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unexpected EOF")

	// original stays untouched
	assert.Nil(t, ErrInvalidJSON.Err)
}

func TestAppError_ErrorsAs(t *testing.T) {
	var wrapped error = ErrMethodNotAllowed

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, 405, appErr.StatusCode)
	assert.Equal(t, ErrMethodNotAllowed.Message, wrapped.Error())
}
