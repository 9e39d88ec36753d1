// Package response writes the JSON bodies shared by all endpoints.
package response

import (
	"encoding/json"
	"net/http"

	"example.com/postapi/internal/apperr"
)

// ErrorBody is the payload of every failed request.
// Error is only set for server-side failures.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageBody is the payload of operations that return nothing but a confirmation.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error maps err to its status code and writes an ErrorBody.
func Error(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	JSON(w, e.Status(), ErrorBody{Message: e.Message, Error: e.Detail()})
}
