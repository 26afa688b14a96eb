// Package testutil provides test doubles for the bot API and the lookup
// services, plus fixtures and a fake clock.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Capture records one request received by a mock server.
type Capture struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	Timestamp   time.Time
}

// MockBotServer is a mock Telegram Bot API server. Every request is captured
// so tests can assert on call counts and payloads; the "no network call"
// short-circuit properties rely on CaptureCount staying zero.
type MockBotServer struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	captures []Capture
}

// NewMockBotServer creates a mock bot API server, closed automatically when
// the test completes. Unhandled paths answer a default ok:true envelope.
func NewMockBotServer(t *testing.T) *MockBotServer {
	t.Helper()

	m := &MockBotServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockBotServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	m.mu.Lock()
	m.captures = append(m.captures, Capture{
		Method:      r.Method,
		Path:        r.URL.Path,
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Timestamp:   time.Now(),
	})
	handler, exists := m.handlers[r.Method+":"+r.URL.Path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}
	ReplyOK(w, map[string]any{})
}

// On registers a handler for a POST request to the given path.
func (m *MockBotServer) On(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers["POST:"+path] = handler
}

// Captures returns all captured requests.
func (m *MockBotServer) Captures() []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Capture{}, m.captures...)
}

// LastCapture returns the most recent captured request, or nil.
func (m *MockBotServer) LastCapture() *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.captures) == 0 {
		return nil
	}
	return &m.captures[len(m.captures)-1]
}

// CaptureCount returns the total number of captured requests.
func (m *MockBotServer) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}

// BaseURL returns the server's base URL, usable as the API base URL.
func (m *MockBotServer) BaseURL() string {
	return m.Server.URL
}
