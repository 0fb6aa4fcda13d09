package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "vote.sid"

const ctxUserKey = "user"

// SessionToken returns the token presented by the client: the session
// cookie, or failing that an "Authorization: Bearer" header.
func SessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Session resolves the presented token to a user and stores it in the
// context. Anonymous requests pass through; RequireAuth rejects them.
func Session(sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c)
			if token == "" {
				return next(c)
			}

			user, err := sessions.CurrentUser(c.Request().Context(), token)
			if err != nil {
				return err
			}
			if user != nil {
				SetUser(c, user)
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests that Session could not authenticate.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserFromContext(c) == nil {
				return domain.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// SetUser marks the request as made by user.
func SetUser(c echo.Context, user *domain.User) {
	c.Set(ctxUserKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(c echo.Context) *domain.User {
	user, _ := c.Get(ctxUserKey).(*domain.User)
	return user
}
