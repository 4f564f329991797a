package auth

import (
	"context"

	"github.com/BlackMission/fedisub/internal/domain"
)

// Provider talks to one API flavor of remote instance.
type Provider interface {
	Name() string
	RegisterApplication(ctx context.Context, inst domain.Instance, redirectURI string, scopes []string) (*domain.Registration, error)
	ExchangeCode(ctx context.Context, grant domain.AuthorizationGrant, clientID, clientSecret, redirectURI string) (*domain.TokenPair, error)
	Session(inst domain.Instance, accessToken string) Session
}

// Session is an authenticated handle to an instance's REST API. Handles are
// cheap and built per request; they hold no state beyond the token.
type Session interface {
	VerifyIdentity(ctx context.Context) (*domain.Profile, error)
	ListFollowing(ctx context.Context, userID string) ([]domain.Profile, error)
	Subscribe(ctx context.Context, userID string) error
	Unsubscribe(ctx context.Context, userID string) error
}
