package utils

import (
	"encoding/json"
	"net/http"
)

// ServerError is the opaque message returned for any unexpected failure.
// Details stay in the logs, never in the response body.
const ServerError = "Server error"

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

func WriteServerError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, ServerError)
}
