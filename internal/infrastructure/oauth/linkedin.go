package oauth

import (
	"golang.org/x/oauth2"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// LinkedIn expects the client credentials in the token request body.
var linkedInEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL:  "https://www.linkedin.com/oauth/v2/accessToken",
	AuthStyle: oauth2.AuthStyleInParams,
}

const linkedInUserInfoURL = "https://api.linkedin.com/v2/userinfo"

// NewLinkedIn returns the LinkedIn provider ("Sign In with LinkedIn using
// OpenID Connect").
func NewLinkedIn(cfg Config) Provider {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = linkedInEndpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = linkedInUserInfoURL
	}
	return newOIDCProvider(domain.ProviderLinkedIn, cfg, []string{"openid", "profile", "email"})
}
