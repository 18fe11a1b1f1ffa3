package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"jwt": "abc"}

	err := WriteJSON(w, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"jwt":"abc"}`, w.Body.String())
}

func TestWriteErrorMessage(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorMessage(w, http.StatusNotFound, "resource not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "resource not found", decodeError(t, w))
}

func TestWriteStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "email is required") }, http.StatusBadRequest, "email is required"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "invalid token") }, http.StatusUnauthorized, "invalid token"},
		{"not found", func(w http.ResponseWriter) { WriteNotFoundError(w, "user not found") }, http.StatusNotFound, "user not found"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w) }, http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeError(t, w))
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteSuccess(w, map[string]string{"status": "updated"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"updated"}`, w.Body.String())
}

func TestWriteTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()

	WriteTooManyRequests(w, 42*time.Second)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", decodeError(t, w))
}

func TestWriteTooManyRequests_MinimumOneSecond(t *testing.T) {
	w := httptest.NewRecorder()

	WriteTooManyRequests(w, 0)

	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
