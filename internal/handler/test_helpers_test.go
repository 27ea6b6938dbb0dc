package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newTestEcho() *echo.Echo {
	return echo.New()
}

// newJSONRequest encodes body as JSON unless it is a string, which is sent verbatim.
func newJSONRequest(method, target string, body any) *http.Request {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

func newTestContext(e *echo.Echo, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// assertJSONResponse checks the status and, when target is non-nil, decodes the body into it.
func assertJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, status int, target any) {
	t.Helper()
	require.Equal(t, status, rec.Code, "unexpected status code")
	if target != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target), "decode body: %s", rec.Body.String())
	}
}
