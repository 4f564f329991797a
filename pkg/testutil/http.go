package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// DoRequest performs an HTTP request against a handler and returns the response recorder.
func DoRequest(t *testing.T, handler http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DoRequestWithCookies performs a GET with the given raw Cookie header.
func DoRequestWithCookies(t *testing.T, handler http.Handler, path, cookieHeader string) *httptest.ResponseRecorder {
	t.Helper()
	headers := map[string]string{}
	if cookieHeader != "" {
		headers["Cookie"] = cookieHeader
	}
	return DoRequest(t, handler, http.MethodGet, path, headers)
}

// ParseJSON decodes the response body into the given value.
func ParseJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("parsing JSON %q: %v", string(body), err)
	}
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d (body: %s)", expected, rr.Code, rr.Body.String())
	}
}

// CookieMap returns the cookies set by a response, keyed by name.
func CookieMap(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rr.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

// CountOccurrences counts non-overlapping occurrences of substr in the response body.
func CountOccurrences(rr *httptest.ResponseRecorder, substr string) int {
	return strings.Count(rr.Body.String(), substr)
}
