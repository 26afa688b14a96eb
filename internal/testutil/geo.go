package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// LookupServer is a mock lookup service (IP echo, IP geolocation or reverse
// geocoding) answering a fixed JSON payload and counting requests.
type LookupServer struct {
	*httptest.Server
	calls atomic.Int64
}

// NewLookupServer serves the given payload as JSON for every request.
func NewLookupServer(t *testing.T, payload any) *LookupServer {
	t.Helper()

	s := &LookupServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(s.Server.Close)
	return s
}

// NewFailingLookupServer answers every request with the given status code.
func NewFailingLookupServer(t *testing.T, status int) *LookupServer {
	t.Helper()

	s := &LookupServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		http.Error(w, "service unavailable", status)
	}))
	t.Cleanup(s.Server.Close)
	return s
}

// Calls returns how many requests the server has received.
func (s *LookupServer) Calls() int64 { return s.calls.Load() }

// IPEchoPayload builds the IP echo service response shape.
func IPEchoPayload(ip string) map[string]string {
	return map[string]string{"ip": ip}
}

// ReverseGeocodePayload builds a Nominatim-shaped reverse geocoding response.
func ReverseGeocodePayload(displayName, city, state, postcode, country string) map[string]any {
	return map[string]any{
		"display_name": displayName,
		"address": map[string]string{
			"city":     city,
			"state":    state,
			"postcode": postcode,
			"country":  country,
		},
	}
}
