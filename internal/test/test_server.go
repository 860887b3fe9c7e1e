package test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/router"
	"github.com/stablemail/go-relay/internal/config"
	"github.com/stablemail/go-relay/internal/metrics"
)

// WithTestServer runs closure against a routed server whose domain services
// are replaced by the given fakes. No external dependency is touched.
func WithTestServer(t *testing.T, transactions api.TransactionService, contacts api.ContactService, closure func(s *api.Server)) {
	t.Helper()

	s := api.NewServer(config.DefaultServiceConfigFromEnv())
	s.Metrics = metrics.New()
	s.Transactions = transactions
	s.Contacts = contacts

	router.Init(s)

	closure(s)
}

// PerformRequest runs a request through the server's routing stack and
// returns the recorded response.
func PerformRequest(t *testing.T, s *api.Server, method, path string, body io.Reader, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)

	if headers != nil {
		req.Header = headers
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	return rec
}

// ParseResponseBody unmarshals the recorded response into target.
func ParseResponseBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}
