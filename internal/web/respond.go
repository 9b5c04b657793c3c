package web

import (
	"encoding/json"
	"log"
	"net/http"
)

// envelope is the common JSON response shape.
type envelope map[string]any

// respondJSON writes v with success=true merged in.
func respondJSON(w http.ResponseWriter, status int, v envelope) {
	body := envelope{"success": true}
	for k, val := range v {
		body[k] = val
	}
	writeJSON(w, status, body)
}

// respondError writes a structured failure result.
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{
		"success": false,
		"error":   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("web: encoding response: %v", err)
	}
}
