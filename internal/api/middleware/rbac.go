package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

// RequireAdmin lets only administrators through. It must run after Session.
// The admin service repeats the check, so this only fails requests early.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFromContext(c)
			if user == nil {
				return domain.ErrUnauthenticated
			}
			if !user.IsAdmin {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
