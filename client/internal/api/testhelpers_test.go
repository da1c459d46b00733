package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

// errRT is an http.RoundTripper that always fails (simulates a network fault).
type errRT struct{}

func (e *errRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, fmt.Errorf("boom") }

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *resty.Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, resty.NewWithClient(srv.Client()).SetBaseURL(srv.URL + "/api")
}

func failingClient() *resty.Client {
	return resty.NewWithClient(&http.Client{Transport: &errRT{}}).SetBaseURL("http://example.com/api")
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
