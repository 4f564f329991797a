package pleroma

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/observability/logger"
)

// ExchangeCode trades an authorization code for a token pair at the instance that issued it.
func (p *Provider) ExchangeCode(ctx context.Context, grant domain.AuthorizationGrant, clientID, clientSecret, redirectURI string) (*domain.TokenPair, error) {
	if grant.Code == "" {
		return nil, domain.ErrMissingCode
	}
	if grant.Instance.Domain == "" || clientID == "" || clientSecret == "" {
		return nil, domain.ErrMissingCredentials
	}

	conf := p.oauthConfig(grant.Instance, clientID, clientSecret, redirectURI, nil)
	tok, err := conf.Exchange(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient), grant.Code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			logger.From(ctx).Debug("token exchange rejected",
				logger.Domain(grant.Instance.Domain),
				logger.Status(re.Response.StatusCode),
				logger.String("error_code", re.ErrorCode),
			)
			return nil, fmt.Errorf("%w: status %d", domain.ErrTokenExchange, re.Response.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenExchange, err)
	}

	return &domain.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Instance:     grant.Instance,
	}, nil
}
