package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/postapi/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ClientFailureHasNoDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, apperr.Wrap(apperr.Forbidden, "Unauthorized action!", errors.New("owner mismatch")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Unauthorized action!", body["message"])
	assert.NotContains(t, body, "error")
}

func TestError_ServerFailureCarriesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("unexpected"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "An error occurred!", body.Message)
	assert.Equal(t, "unexpected", body.Error)
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusOK, "Post successfully deleted!")

	var body MessageBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Post successfully deleted!", body.Message)
}
