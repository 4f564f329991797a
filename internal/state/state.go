// Package state reconstructs the broker's flow position from carrier cookies.
package state

import (
	"fmt"

	"github.com/BlackMission/fedisub/internal/carrier"
	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/instance"
)

// Stage is the flow position implied by the cookies present on a request.
type Stage int

const (
	Anonymous Stage = iota
	PendingApproval
	Authenticated
)

func (s Stage) String() string {
	switch s {
	case PendingApproval:
		return "pending_approval"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Pending holds what the callback needs to exchange an authorization code.
type Pending struct {
	Instance     domain.Instance
	ClientID     string
	ClientSecret string
}

// Credentials holds what authenticated routes need to call the instance API.
type Credentials struct {
	Instance     domain.Instance
	AccessToken  string
	RefreshToken string
}

// State is built once per request. Pending and Credentials are independent:
// an authenticated browser usually still carries its client credentials.
type State struct {
	stage       Stage
	pending     *Pending
	credentials *Credentials
	missing     []string
}

// FromFields derives the state from parsed carrier cookies. A domain that does
// not normalize counts as absent.
func FromFields(f carrier.Fields) State {
	var st State

	var inst *domain.Instance
	if raw, ok := f.Get(carrier.FieldDomain); ok {
		if i, err := instance.Normalize(raw); err == nil {
			inst = &i
		}
	}

	clientID := present(f, carrier.FieldClientID)
	clientSecret := present(f, carrier.FieldClientSecret)
	accessToken := present(f, carrier.FieldAccessToken)

	if inst == nil {
		st.missing = append(st.missing, carrier.FieldDomain)
	}
	if clientID == "" {
		st.missing = append(st.missing, carrier.FieldClientID)
	}
	if clientSecret == "" {
		st.missing = append(st.missing, carrier.FieldClientSecret)
	}
	if accessToken == "" {
		st.missing = append(st.missing, carrier.FieldAccessToken)
	}

	if inst != nil && clientID != "" && clientSecret != "" {
		st.pending = &Pending{Instance: *inst, ClientID: clientID, ClientSecret: clientSecret}
		st.stage = PendingApproval
	}
	if inst != nil && accessToken != "" {
		refresh, _ := f.Get(carrier.FieldRefreshToken)
		st.credentials = &Credentials{Instance: *inst, AccessToken: accessToken, RefreshToken: refresh}
		st.stage = Authenticated
	}
	return st
}

// Stage reports the furthest flow position the cookies support.
func (s State) Stage() Stage { return s.stage }

// Pending returns the registration carried by the cookies.
func (s State) Pending() (Pending, error) {
	if s.pending == nil {
		return Pending{}, s.missingErr(carrier.FieldDomain, carrier.FieldClientID, carrier.FieldClientSecret)
	}
	return *s.pending, nil
}

// Credentials returns the session carried by the cookies.
func (s State) Credentials() (Credentials, error) {
	if s.credentials == nil {
		return Credentials{}, s.missingErr(carrier.FieldDomain, carrier.FieldAccessToken)
	}
	return *s.credentials, nil
}

func (s State) missingErr(required ...string) error {
	var names []string
	for _, m := range s.missing {
		for _, r := range required {
			if m == r {
				names = append(names, m)
			}
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrMissingCredentials, names)
}

func present(f carrier.Fields, name string) string {
	v, _ := f.Get(name)
	return v
}
