// Package httputil writes and reads the JSON envelope of the auth API.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the response body shape of every endpoint.
type Envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Data      any               `json:"data,omitempty"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// WriteJSON encodes v with status. Encoding failures are logged only; the
// status line has been sent by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteFailure writes a failure envelope.
func WriteFailure(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message, ErrorCode: code, Errors: fields})
}

// DecodeJSON reads one JSON object from the body into T. Unknown fields are
// ignored.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, fmt.Errorf("empty request body")
		}
		return v, fmt.Errorf("decode request body: %w", err)
	}
	return v, nil
}
