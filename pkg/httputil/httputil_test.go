package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/reviews/1", nil)

	WriteError(rec, r, apperrors.NotFound("review", "1"), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestWriteError_SentinelInvalidTransition(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("PUT", "/reviews/status", nil)

	err := apperrors.Wrap(apperrors.ErrInvalidTransition, "update status")
	WriteError(rec, r, err, testLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWriteError_Internal(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/reviews", nil)

	WriteError(rec, r, errors.New("connection reset"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	// Internal details must not leak to the caller.
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestNewPaginatedResponse_ZeroIndexed(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2, 3}, 25, 0, 10)

	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 0, resp.Page)
	assert.True(t, resp.HasNext)

	last := NewPaginatedResponse([]int{1}, 25, 2, 10)
	assert.False(t, last.HasNext)
}

func TestNewPaginatedResponse_NilData(t *testing.T) {
	resp := NewPaginatedResponse[string](nil, 0, 0, 10)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 0, resp.TotalPages)
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseUUID(rec, "b4f9d1f2-3a69-4a5c-9a57-2f6f0f9cc111")
	assert.True(t, ok)
	assert.NotEmpty(t, id)

	rec = httptest.NewRecorder()
	_, ok = ParseUUID(rec, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
