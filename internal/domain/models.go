package domain

// Instance is a remote server identified by its bare domain name.
type Instance struct {
	Domain string `json:"domain"`
}

// BaseURL is always https:// followed by the domain.
func (i Instance) BaseURL() string {
	return "https://" + i.Domain
}

// Registration is the result of dynamically registering this application with an instance.
// ClientID and ClientSecret are bearer secrets valid only for Instance.
type Registration struct {
	ClientID         string   `json:"client_id"`
	ClientSecret     string   `json:"-"`
	AuthorizationURL string   `json:"authorization_url"`
	Instance         Instance `json:"instance"`
}

// AuthorizationGrant is the single-use code returned by an instance after approval.
type AuthorizationGrant struct {
	Code     string
	Instance Instance
}

// TokenPair is issued by the token endpoint. The access token is never inspected.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Instance     Instance
}

// Profile is an account as returned by the instance REST API.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	AvatarURL   string `json:"avatar"`
}
