package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("review", "abc-123")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "review")
	assert.Contains(t, err.Message, "abc-123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("rating must be between 1 and 5")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("ARCHIVED", "HIDDEN")

	assert.Equal(t, "INVALID_TRANSITION", err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Contains(t, err.Message, "ARCHIVED")
	assert.Contains(t, err.Message, "HIDDEN")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConflict(t *testing.T) {
	err := Conflict("review was modified concurrently")

	assert.Equal(t, "CONFLICT", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAppError_ErrorString(t *testing.T) {
	plain := &AppError{Code: "X", Message: "boom"}
	assert.Equal(t, "X: boom", plain.Error())

	wrapped := &AppError{Code: "X", Message: "boom", Err: errors.New("cause")}
	assert.Equal(t, "X: boom: cause", wrapped.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("review", "1"), http.StatusNotFound},
		{InvalidInput("bad"), http.StatusBadRequest},
		{InvalidTransition("PUBLISHED", "PUBLISHED"), http.StatusUnprocessableEntity},
		{Conflict("busy"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", ErrInvalidTransition), http.StatusUnprocessableEntity},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(base, "query reviews")

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "query reviews")
}
