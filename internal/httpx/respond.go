// Package httpx provides the response envelope helpers shared by all HTTP
// handlers. Every endpoint speaks {data, success, message} - the same envelope
// the execution backend uses, so the SPA handles both uniformly.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response wrapper.
type Envelope struct {
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
}

// RespondData writes a success envelope.
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{Data: data, Success: true})
}

// RespondMessage writes a success envelope with a human-readable note.
func RespondMessage(w http.ResponseWriter, status int, data interface{}, message string) {
	write(w, status, Envelope{Data: data, Success: true, Message: message})
}

// RespondError writes a failure envelope. Data is always null on failure.
func RespondError(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
