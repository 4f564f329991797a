// Package pleroma implements the instance API used by Pleroma and Akkoma servers:
// dynamic app registration, the authorization-code grant and the REST endpoints
// the broker needs.
package pleroma

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/BlackMission/fedisub/internal/domain"
)

const (
	providerName      = "pleroma"
	defaultAppName    = "Pleroma Subscription App"
	appsPath          = "/api/v1/apps"
	authorizePath     = "/oauth/authorize"
	tokenPath         = "/oauth/token"
	maxResponseBytes  = 1 << 20
	maxRedirects      = 10
	errorSnippetBytes = 256
)

// Config holds settings shared by every instance the provider talks to.
type Config struct {
	// AppName prefixes the generated application display name.
	AppName string
	// Website is advertised to the instance during registration. Optional.
	Website string
	// HTTPClient is used for every outbound call. It is copied, and unless it
	// sets its own CheckRedirect, redirects to another host are refused.
	HTTPClient *http.Client
}

// Provider implements auth.Provider for the Pleroma API flavor.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	newAppName func() string
}

// New creates a Pleroma provider.
func New(cfg Config) *Provider {
	if cfg.AppName == "" {
		cfg.AppName = defaultAppName
	}
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		httpClient = &c
	}
	if httpClient.CheckRedirect == nil {
		httpClient.CheckRedirect = sameHostRedirect
	}
	p := &Provider{
		cfg:        cfg,
		httpClient: httpClient,
	}
	p.newAppName = func() string { return p.cfg.AppName + " " + uuid.NewString() }
	return p
}

func (p *Provider) Name() string { return providerName }

// sameHostRedirect keeps every hop on the instance the request started at, so
// client credentials, codes and bearer tokens are never replayed elsewhere.
func sameHostRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	origin := via[0].URL
	if req.URL.Scheme != origin.Scheme || req.URL.Host != origin.Host {
		return fmt.Errorf("refusing redirect from %s to %s://%s", origin.Host, req.URL.Scheme, req.URL.Host)
	}
	return nil
}

// oauthConfig describes one registered application on one instance.
func (p *Provider) oauthConfig(inst domain.Instance, clientID, clientSecret, redirectURI string, scopes []string) *oauth2.Config {
	base := inst.BaseURL()
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + authorizePath,
			TokenURL:  base + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorSnippetBytes {
		s = s[:errorSnippetBytes]
	}
	return s
}
