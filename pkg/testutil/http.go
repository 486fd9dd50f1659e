// Package testutil provides helpers for handler tests against the JSON
// envelope API.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viacarona/pkg/platform/httputil"
)

// NewJSONRequest builds a request whose body is body marshalled to JSON. A
// string body is sent as is, so malformed payloads can be tested.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest serves req with handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeEnvelope reads the response body as an envelope. Data decodes into
// generic JSON values.
func DecodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "decode envelope: %s", rr.Body.String())
	return env
}

// AssertFailure checks the status and the envelope error code of a failed
// call and returns the envelope for further checks.
func AssertFailure(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) httputil.Envelope {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code")
	env := DecodeEnvelope(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, code, env.ErrorCode, "unexpected error code")
	return env
}

// AssertSuccess checks the status of a successful call and returns its
// envelope.
func AssertSuccess(t *testing.T, rr *httptest.ResponseRecorder, status int) httputil.Envelope {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code: %s", rr.Body.String())
	env := DecodeEnvelope(t, rr)
	assert.True(t, env.Success)
	return env
}
