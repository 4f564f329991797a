package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fedisub/internal/carrier"
	"github.com/BlackMission/fedisub/internal/domain"
)

func TestFromFields_Anonymous(t *testing.T) {
	st := FromFields(carrier.Parse(""))

	assert.Equal(t, Anonymous, st.Stage())
	_, err := st.Pending()
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	_, err = st.Credentials()
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestFromFields_Pending(t *testing.T) {
	st := FromFields(carrier.Fields{
		carrier.FieldDomain:       "example.social",
		carrier.FieldClientID:     "X",
		carrier.FieldClientSecret: "Y",
	})

	assert.Equal(t, PendingApproval, st.Stage())
	p, err := st.Pending()
	require.NoError(t, err)
	assert.Equal(t, Pending{Instance: domain.Instance{Domain: "example.social"}, ClientID: "X", ClientSecret: "Y"}, p)

	_, err = st.Credentials()
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	assert.Contains(t, err.Error(), carrier.FieldAccessToken)
}

func TestFromFields_Authenticated(t *testing.T) {
	st := FromFields(carrier.Fields{
		carrier.FieldDomain:       "example.social",
		carrier.FieldClientID:     "X",
		carrier.FieldClientSecret: "Y",
		carrier.FieldAccessToken:  "tok",
		carrier.FieldRefreshToken: "ref",
	})

	assert.Equal(t, Authenticated, st.Stage())
	c, err := st.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "tok", c.AccessToken)
	assert.Equal(t, "ref", c.RefreshToken)
	assert.Equal(t, "example.social", c.Instance.Domain)

	_, err = st.Pending()
	assert.NoError(t, err)
}

func TestFromFields_TokenWithoutDomain(t *testing.T) {
	st := FromFields(carrier.Fields{carrier.FieldAccessToken: "tok"})

	assert.Equal(t, Anonymous, st.Stage())
	_, err := st.Credentials()
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	assert.Contains(t, err.Error(), carrier.FieldDomain)
}

func TestFromFields_EmptyTokenIsAbsent(t *testing.T) {
	st := FromFields(carrier.Fields{carrier.FieldDomain: "example.social", carrier.FieldAccessToken: ""})

	_, err := st.Credentials()
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestFromFields_MalformedDomainIsAbsent(t *testing.T) {
	st := FromFields(carrier.Fields{
		carrier.FieldDomain:      "evil.example/path",
		carrier.FieldAccessToken: "tok",
	})

	assert.Equal(t, Anonymous, st.Stage())
	_, err := st.Credentials()
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "pending_approval", PendingApproval.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}
