package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

const userInfoTimeout = 10 * time.Second

// Provider runs the authorization-code exchange with one identity provider.
type Provider interface {
	Name() domain.Provider
	AuthCodeURL(state string) string
	// Identity exchanges code and fetches the profile behind it.
	Identity(ctx context.Context, code string) (domain.ExternalIdentity, error)
}

// Config holds the client registration for one provider. Endpoint and
// UserInfoURL default to the provider's public values.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

// Enabled reports whether the provider has credentials.
func (c Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// oidcProvider handles providers that expose an OpenID Connect userinfo
// endpoint, which both Google and LinkedIn do.
type oidcProvider struct {
	name        domain.Provider
	oauth       *oauth2.Config
	userInfoURL string
	authOpts    []oauth2.AuthCodeOption
}

func newOIDCProvider(name domain.Provider, cfg Config, scopes []string, opts ...oauth2.AuthCodeOption) *oidcProvider {
	return &oidcProvider{
		name: name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		authOpts:    opts,
	}
}

func (p *oidcProvider) Name() domain.Provider { return p.name }

func (p *oidcProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, p.authOpts...)
}

// userInfo is the standard OpenID Connect claim set.
type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func (p *oidcProvider) Identity(ctx context.Context, code string) (domain.ExternalIdentity, error) {
	if code == "" {
		return domain.ExternalIdentity{}, errors.New("oauth: missing authorization code")
	}

	ctx, cancel := context.WithTimeout(ctx, userInfoTimeout)
	defer cancel()

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("oauth %s: exchange: %w", p.name, err)
	}

	info, err := p.fetchUserInfo(ctx, p.oauth.Client(ctx, token))
	if err != nil {
		return domain.ExternalIdentity{}, err
	}
	if info.Sub == "" {
		return domain.ExternalIdentity{}, fmt.Errorf("oauth %s: profile without subject", p.name)
	}

	email := info.Email
	if info.EmailVerified != nil && !*info.EmailVerified {
		// An unverified address must not be used to merge accounts.
		email = ""
	}
	name := info.Name
	if name == "" {
		name = joinName(info.GivenName, info.FamilyName)
	}

	return domain.ExternalIdentity{
		Provider:    p.name,
		ProviderID:  info.Sub,
		Email:       email,
		DisplayName: name,
	}, nil
}

func (p *oidcProvider) fetchUserInfo(ctx context.Context, client *http.Client) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth %s: userinfo request: %w", p.name, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth %s: userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("oauth %s: userinfo status %d: %s", p.name, resp.StatusCode, body)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("oauth %s: decode userinfo: %w", p.name, err)
	}
	return &info, nil
}

func joinName(given, family string) string {
	switch {
	case given == "":
		return family
	case family == "":
		return given
	}
	return given + " " + family
}
