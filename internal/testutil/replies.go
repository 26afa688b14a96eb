package testutil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard bot API response format.
type Envelope struct {
	OK          bool   `json:"ok"`
	Result      any    `json:"result,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// ReplyOK writes a successful envelope with the given result.
func ReplyOK(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Envelope{OK: true, Result: result})
}

// ReplyError writes an error envelope with the given HTTP status.
func ReplyError(w http.ResponseWriter, status, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{OK: false, ErrorCode: code, Description: description})
}

// ReplyRejection writes an ok:false envelope with HTTP 200, the shape the
// bot API uses for request-level rejections.
func ReplyRejection(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Envelope{OK: false, ErrorCode: code, Description: description})
}
