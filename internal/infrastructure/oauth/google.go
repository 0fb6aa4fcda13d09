package oauth

import (
	"golang.org/x/oauth2"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// NewGoogle returns the Google provider, filling in public endpoints that
// cfg leaves empty.
func NewGoogle(cfg Config) Provider {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = googleEndpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = googleUserInfoURL
	}
	return newOIDCProvider(domain.ProviderGoogle, cfg,
		[]string{"openid", "email", "profile"},
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}
