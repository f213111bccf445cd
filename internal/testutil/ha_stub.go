package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// HACall — запрос, пришедший в заглушку Home Assistant.
type HACall struct {
	Path          string
	Authorization string
	Body          map[string]any
}

// HAStub — httptest-заглушка Home Assistant REST API с фиксированным ответом.
type HAStub struct {
	*httptest.Server

	mu     sync.Mutex
	calls  []HACall
	status int
	body   string
}

// NewHAStub — заглушка, отвечающая status/body на любой запрос; закрывается в t.Cleanup.
func NewHAStub(t testing.TB, status int, body string) *HAStub {
	t.Helper()
	s := &HAStub{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// APIURL — базовый адрес вида http://host:port/api.
func (s *HAStub) APIURL() string { return s.URL + "/api" }

func (s *HAStub) serve(w http.ResponseWriter, r *http.Request) {
	call := HACall{Path: r.URL.Path, Authorization: r.Header.Get("Authorization")}
	if raw, err := io.ReadAll(r.Body); err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	status, body := s.status, s.body
	s.mu.Unlock()

	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Calls — копия принятых запросов.
func (s *HAStub) Calls() []HACall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HACall(nil), s.calls...)
}
