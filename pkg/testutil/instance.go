package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/BlackMission/fedisub/internal/domain"
)

// RecordedRequest is one call received by a FakeInstance.
type RecordedRequest struct {
	Method        string
	Path          string
	Host          string
	Authorization string
	Form          url.Values
	JSON          map[string]any
}

// FakeInstance is a TLS server speaking the subset of the Pleroma/Mastodon API the broker uses.
// Set the exported fields before issuing requests.
type FakeInstance struct {
	Server *httptest.Server
	// Domain is host:port of the server, usable as a normalized instance domain.
	Domain string

	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	Me           domain.Profile
	Following    []domain.Profile

	// Non-zero values force the matching endpoint to fail with that status.
	RegisterStatus int
	TokenStatus    int
	APIStatus      int

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeInstance starts a fake instance that is closed when the test ends.
func NewFakeInstance(t *testing.T) *FakeInstance {
	t.Helper()
	f := &FakeInstance{
		ClientID:     "fake-client-id",
		ClientSecret: "fake-client-secret",
		AccessToken:  "fake-access-token",
		RefreshToken: "fake-refresh-token",
		Me:           domain.Profile{ID: "me1", Username: "alice", Acct: "alice", DisplayName: "Alice"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/apps", f.handleApps)
	mux.HandleFunc("POST /oauth/token", f.handleToken)
	mux.HandleFunc("GET /api/v1/accounts/verify_credentials", f.authed(f.handleVerify))
	mux.HandleFunc("GET /api/v1/accounts/{id}/following", f.authed(f.handleFollowing))
	mux.HandleFunc("POST /api/v1/pleroma/accounts/{id}/{action}", f.authed(f.handleRelationship))
	mux.HandleFunc("POST /api/v1/accounts/{id}/follow", f.authed(f.handleRelationship))

	f.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		mux.ServeHTTP(w, r)
	}))
	f.Domain = strings.TrimPrefix(f.Server.URL, "https://")
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns an HTTP client that trusts the fake instance's certificate.
func (f *FakeInstance) Client() *http.Client {
	return f.Server.Client()
}

// Requests returns every request received so far.
func (f *FakeInstance) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsTo returns the requests received for path.
func (f *FakeInstance) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeInstance) record(r *http.Request) {
	rec := RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Host:          r.Host,
		Authorization: r.Header.Get("Authorization"),
	}

	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(body, &rec.JSON)
	} else if len(body) > 0 {
		rec.Form, _ = url.ParseQuery(string(body))
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
}

func (f *FakeInstance) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.AccessToken {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"error": "The access token is invalid"})
			return
		}
		if f.APIStatus != 0 {
			writeFakeJSON(w, f.APIStatus, map[string]string{"error": "internal secret-laden failure"})
			return
		}
		next(w, r)
	}
}

func (f *FakeInstance) handleApps(w http.ResponseWriter, r *http.Request) {
	if f.RegisterStatus != 0 {
		writeFakeJSON(w, f.RegisterStatus, map[string]string{"error": "registration closed"})
		return
	}
	var req map[string]any
	_ = json.NewDecoder(r.Body).Decode(&req)
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"id":            "1",
		"name":          req["client_name"],
		"redirect_uri":  req["redirect_uris"],
		"client_id":     f.ClientID,
		"client_secret": f.ClientSecret,
	})
}

func (f *FakeInstance) handleToken(w http.ResponseWriter, r *http.Request) {
	if f.TokenStatus != 0 {
		writeFakeJSON(w, f.TokenStatus, map[string]string{"error": "invalid_grant"})
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"access_token":  f.AccessToken,
		"refresh_token": f.RefreshToken,
		"token_type":    "Bearer",
		"scope":         "read write follow",
	})
}

func (f *FakeInstance) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeFakeJSON(w, http.StatusOK, f.Me)
}

func (f *FakeInstance) handleFollowing(w http.ResponseWriter, r *http.Request) {
	following := f.Following
	if following == nil {
		following = []domain.Profile{}
	}
	writeFakeJSON(w, http.StatusOK, following)
}

func (f *FakeInstance) handleRelationship(w http.ResponseWriter, r *http.Request) {
	writeFakeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "following": true})
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
