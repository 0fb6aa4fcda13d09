package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/api/middleware"
	"github.com/ballotbox/voting-api/internal/core/domain"
)

// actor returns the user put in the context by the Session middleware and
// fails fast when the route was mounted without it.
func actor(c echo.Context) (*domain.User, error) {
	user := middleware.UserFromContext(c)
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// CookieConfig controls the attributes of cookies set by the auth handlers.
type CookieConfig struct {
	// Secure restricts cookies to HTTPS; off for local development.
	Secure bool
}

func (cc CookieConfig) sessionCookie(sess *domain.Session, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(sess.ExpiresAt.Sub(now).Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// expired builds a cookie that makes the browser drop name.
func (cc CookieConfig) expired(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
