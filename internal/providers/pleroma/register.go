package pleroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/observability/logger"
)

type appRequest struct {
	ClientName   string `json:"client_name"`
	RedirectURIs string `json:"redirect_uris"`
	Scopes       string `json:"scopes"`
	Website      string `json:"website,omitempty"`
}

type appResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// RegisterApplication registers a fresh application with inst and returns its
// credentials together with the URL the browser must visit to approve access.
func (p *Provider) RegisterApplication(ctx context.Context, inst domain.Instance, redirectURI string, scopes []string) (*domain.Registration, error) {
	payload, err := json.Marshal(appRequest{
		ClientName:   p.newAppName(),
		RedirectURIs: redirectURI,
		Scopes:       strings.Join(scopes, " "),
		Website:      p.cfg.Website,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling app request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inst.BaseURL()+appsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrRegistration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrRegistration, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logger.From(ctx).Debug("app registration rejected",
			logger.Domain(inst.Domain),
			logger.Status(resp.StatusCode),
			logger.String("body", snippet(body)),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrRegistration, resp.StatusCode)
	}

	var app appResponse
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrRegistration, err)
	}
	if app.ClientID == "" || app.ClientSecret == "" {
		return nil, fmt.Errorf("%w: empty client credentials", domain.ErrRegistration)
	}

	conf := p.oauthConfig(inst, app.ClientID, app.ClientSecret, redirectURI, scopes)
	return &domain.Registration{
		ClientID:         app.ClientID,
		ClientSecret:     app.ClientSecret,
		AuthorizationURL: conf.AuthCodeURL(""),
		Instance:         inst,
	}, nil
}
