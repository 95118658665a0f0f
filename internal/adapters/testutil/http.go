// Package testutil hosts helpers shared by adapter tests: JSON request
// builders and a registry service backed by in-memory slots.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"donorregistry/internal/core"
	"donorregistry/internal/infra/kv/memory"
)

// NewJSONRequest creates a request whose body is body marshaled to JSON.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest serves req through handler.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeJSON unmarshals the recorded response body into a T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "decode response: %s", rr.Body.String())
	return out
}

// NewMemoryService returns a registry service over a fresh in-memory slot
// store together with the store itself.
func NewMemoryService(seed bool, opts ...core.ServiceOption) (*core.Service, *memory.Store) {
	slots := memory.New()
	records := core.NewSlotRecordStore(slots, core.WithSeed(seed))
	return core.NewService(records, opts...), slots
}
