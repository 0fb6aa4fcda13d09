package handler

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

const (
	stateCookie     = "oauth_state"
	stateCookiePath = "/api/auth"
	stateCookieAge  = 10 * time.Minute
)

// IdentityProvider runs the authorization-code exchange with one provider.
type IdentityProvider interface {
	Name() domain.Provider
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (domain.ExternalIdentity, error)
}

// StateIssuer signs and verifies the OAuth state parameter.
type StateIssuer interface {
	Sign(p domain.Provider) (string, error)
	Verify(state string, p domain.Provider) error
}

// OAuthHandler drives the Google and LinkedIn login redirects. The browser
// always ends up back on the frontend: the dashboard on success, the login
// page with an error flag otherwise.
type OAuthHandler struct {
	providers   map[domain.Provider]IdentityProvider
	states      StateIssuer
	identity    ports.IdentityService
	sessions    ports.SessionService
	cookies     CookieConfig
	frontendURL string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOAuthHandler registers the enabled providers. A provider that is not
// passed in is not found.
func NewOAuthHandler(
	providers []IdentityProvider,
	states StateIssuer,
	identity ports.IdentityService,
	sessions ports.SessionService,
	cookies CookieConfig,
	frontendURL string,
	logger zerolog.Logger,
) *OAuthHandler {
	byName := make(map[domain.Provider]IdentityProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthHandler{
		providers:   byName,
		states:      states,
		identity:    identity,
		sessions:    sessions,
		cookies:     cookies,
		frontendURL: frontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Start redirects the browser to the provider's consent page. Providers
// without client credentials are not found.
//
// @Summary      Start OAuth login
// @Tags         auth
// @Param        provider  path  string  true  "google or linkedin"
// @Success      302
// @Failure      404  {object}  errorResponse
// @Router       /auth/{provider} [get]
func (h *OAuthHandler) Start(c echo.Context) error {
	provider, ok := h.providers[domain.Provider(c.Param("provider"))]
	if !ok {
		return echo.ErrNotFound
	}
	name := provider.Name()

	state, err := h.states.Sign(name)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(stateCookieAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Callback completes the code exchange, reconciles the profile with an
// account and starts a session.
//
// @Summary      OAuth callback
// @Tags         auth
// @Param        provider  path   string  true   "google or linkedin"
// @Param        code      query  string  false  "Authorization code"
// @Param        state     query  string  false  "State issued by Start"
// @Success      302
// @Failure      404  {object}  errorResponse
// @Router       /auth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider, ok := h.providers[domain.Provider(c.Param("provider"))]
	if !ok {
		return echo.ErrNotFound
	}
	name := provider.Name()
	c.SetCookie(h.cookies.expired(stateCookie, stateCookiePath))

	user, err := h.complete(c, provider)
	if err != nil {
		h.logger.Warn().Err(err).Str("provider", string(name)).Msg("oauth login failed")
		return h.fail(c, name)
	}

	sess, err := h.sessions.Start(c.Request().Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Str("provider", string(name)).Msg("failed to start session")
		return h.fail(c, name)
	}
	c.SetCookie(h.cookies.sessionCookie(sess, h.now()))
	return c.Redirect(http.StatusFound, h.frontendURL+"/dashboard")
}

func (h *OAuthHandler) complete(c echo.Context, provider IdentityProvider) (*domain.User, error) {
	if reason := c.QueryParam("error"); reason != "" {
		return nil, fmt.Errorf("provider returned error %q", reason)
	}

	state := c.QueryParam("state")
	cookie, err := c.Cookie(stateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return nil, fmt.Errorf("state does not match the login attempt")
	}
	if err := h.states.Verify(state, provider.Name()); err != nil {
		return nil, err
	}

	code := c.QueryParam("code")
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	ctx := c.Request().Context()
	identity, err := provider.Identity(ctx, code)
	if err != nil {
		return nil, err
	}
	return h.identity.Resolve(ctx, identity)
}

func (h *OAuthHandler) fail(c echo.Context, name domain.Provider) error {
	return c.Redirect(http.StatusFound, fmt.Sprintf("%s/login?error=%s_auth_failed", h.frontendURL, name))
}
