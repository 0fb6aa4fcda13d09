package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ballotbox/voting-api/internal/api/middleware"
	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

const resetRequestedMessage = "If email exists, reset sent"

// AuthHandler serves local signup and login, the session endpoints and the
// password reset flow.
type AuthHandler struct {
	identity ports.IdentityService
	sessions ports.SessionService
	resets   ports.PasswordResetService
	cookies  CookieConfig
	now      func() time.Time
}

func NewAuthHandler(identity ports.IdentityService, sessions ports.SessionService, resets ports.PasswordResetService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		sessions: sessions,
		resets:   resets,
		cookies:  cookies,
		now:      time.Now,
	}
}

// Signup creates a local account.
//
// @Summary      Register with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identity.Resolve(c.Request().Context(), domain.LocalSignup{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, signupResponse{Message: "Signup successful", User: user})
}

// Login authenticates with email and password and starts a session.
//
// @Summary      Login
// @Description  Sets the session cookie and also returns the token for clients that send it as a Bearer header.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	user, err := h.identity.Resolve(ctx, domain.LocalLogin{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	sess, err := h.sessions.Start(ctx, user)
	if err != nil {
		return err
	}

	c.SetCookie(h.cookies.sessionCookie(sess, h.now()))
	return c.JSON(http.StatusOK, authResponse{Token: sess.ID, User: user})
}

// Logout ends the current session, if any.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.End(c.Request().Context(), middleware.SessionToken(c)); err != nil {
		return err
	}
	c.SetCookie(h.cookies.expired(middleware.SessionCookie, "/"))
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me reports whether the caller holds a valid session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionStatusResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user := middleware.UserFromContext(c)
	return c.JSON(http.StatusOK, sessionStatusResponse{Authenticated: user != nil, User: user})
}

// ForgotPassword mails a reset link. The answer is the same whether or not
// the address belongs to an account.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resets.IssueResetToken(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: resetRequestedMessage})
}

// ResetPassword sets a new password using a reset token. Tokens are single use.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.resets.ConsumeResetToken(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful"})
}
