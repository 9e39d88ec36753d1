package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/postapi/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.InfoLevel)

	h := RequestLogger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, buf.String(), "POST /register status=201")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestRequestLogger_ServerErrorsAreWarnings(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.InfoLevel)

	h := RequestLogger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/deletePost", nil))

	assert.Contains(t, buf.String(), "status=500")
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
