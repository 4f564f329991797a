// Package mastodon adapts the Pleroma provider to servers that only speak the
// Mastodon API, where notification subscriptions ride on the follow endpoint.
package mastodon

import (
	"context"
	"net/http"
	"net/url"

	"github.com/BlackMission/fedisub/internal/auth"
	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/providers/pleroma"
)

const providerName = "mastodon"

// Provider shares registration and token exchange with the Pleroma flavor.
type Provider struct {
	*pleroma.Provider
}

// New creates a Mastodon provider.
func New(cfg pleroma.Config) *Provider {
	return &Provider{Provider: pleroma.New(cfg)}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Session(inst domain.Instance, accessToken string) auth.Session {
	return &session{Session: p.NewSession(inst, accessToken)}
}

type session struct {
	*pleroma.Session
}

// Subscribe re-follows the account with notify=true, which Mastodon treats as a subscription.
func (s *session) Subscribe(ctx context.Context, userID string) error {
	return s.follow(ctx, userID, "true")
}

func (s *session) Unsubscribe(ctx context.Context, userID string) error {
	return s.follow(ctx, userID, "false")
}

func (s *session) follow(ctx context.Context, userID, notify string) error {
	if userID == "" {
		return domain.ErrMissingUserID
	}
	return s.Do(ctx, http.MethodPost, pleroma.AccountPath(userID, "follow"), url.Values{"notify": {notify}}, nil)
}
