package api

import (
	"encoding/json"
	"net/http"
)

// FieldError carries per-field detail for validation failures.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the JSON shape every error and most success responses use.
type Envelope struct {
	Status  int          `json:"status"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Status: status, Message: message})
}

func WriteError(w http.ResponseWriter, status int, errText, message string) {
	WriteJSON(w, status, Envelope{Status: status, Error: errText, Message: message})
}

func WriteValidationError(w http.ResponseWriter, fields []FieldError) {
	WriteJSON(w, http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: "Validation error",
		Errors:  fields,
	})
}
