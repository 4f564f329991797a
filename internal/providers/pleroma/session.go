package pleroma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/BlackMission/fedisub/internal/auth"
	"github.com/BlackMission/fedisub/internal/domain"
)

// Session is an authenticated REST handle for one instance and one access token.
type Session struct {
	inst   domain.Instance
	token  string
	client *http.Client
}

// Session builds a fresh handle. It performs no I/O.
func (p *Provider) Session(inst domain.Instance, accessToken string) auth.Session {
	return p.NewSession(inst, accessToken)
}

// NewSession is Session with a concrete return type, for flavors that extend it.
func (p *Provider) NewSession(inst domain.Instance, accessToken string) *Session {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(ctx, src)
	client.CheckRedirect = p.httpClient.CheckRedirect
	client.Timeout = p.httpClient.Timeout
	return &Session{
		inst:   inst,
		token:  accessToken,
		client: client,
	}
}

func (s *Session) VerifyIdentity(ctx context.Context) (*domain.Profile, error) {
	var me domain.Profile
	if err := s.Do(ctx, http.MethodGet, "/api/v1/accounts/verify_credentials", nil, &me); err != nil {
		return nil, err
	}
	if me.ID == "" {
		return nil, fmt.Errorf("%w: verify_credentials returned no account id", domain.ErrRemoteAPI)
	}
	return &me, nil
}

func (s *Session) ListFollowing(ctx context.Context, userID string) ([]domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrMissingUserID
	}
	var following []domain.Profile
	if err := s.Do(ctx, http.MethodGet, AccountPath(userID, "following"), nil, &following); err != nil {
		return nil, err
	}
	return following, nil
}

func (s *Session) Subscribe(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrMissingUserID
	}
	return s.Do(ctx, http.MethodPost, pleromaAccountPath(userID, "subscribe"), nil, nil)
}

func (s *Session) Unsubscribe(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrMissingUserID
	}
	return s.Do(ctx, http.MethodPost, pleromaAccountPath(userID, "unsubscribe"), nil, nil)
}

// AccountPath returns /api/v1/accounts/{id}/{action} with id escaped.
func AccountPath(userID, action string) string {
	return "/api/v1/accounts/" + url.PathEscape(userID) + "/" + action
}

// pleromaAccountPath returns /api/v1/pleroma/accounts/{id}/{action} with id escaped.
func pleromaAccountPath(userID, action string) string {
	return "/api/v1/pleroma/accounts/" + url.PathEscape(userID) + "/" + action
}

// Do performs one authenticated request against path. A non-nil form is sent
// url-encoded; a non-nil out receives the decoded JSON body.
func (s *Session) Do(ctx context.Context, method, path string, form url.Values, out any) error {
	if s.token == "" {
		return domain.ErrMissingCredentials
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, s.inst.BaseURL()+path, body)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", domain.ErrRemoteAPI, err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteAPI, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", domain.ErrRemoteAPI, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s: status %d", domain.ErrRemoteAPI, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrRemoteAPI, err)
	}
	return nil
}
