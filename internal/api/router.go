package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ballotbox/voting-api/docs"
	"github.com/ballotbox/voting-api/internal/api/handler"
	"github.com/ballotbox/voting-api/internal/api/middleware"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

// Dependencies is everything the HTTP layer needs from the rest of the
// application.
type Dependencies struct {
	Identity  ports.IdentityService
	Sessions  ports.SessionService
	Resets    ports.PasswordResetService
	Votes     ports.VoteService
	Admin     ports.AdminService
	Providers []handler.IdentityProvider
	States    handler.StateIssuer
	// Health maps a dependency name to its readiness check.
	Health map[string]handler.Pinger

	FrontendURL   string
	SecureCookies bool
	Logger        zerolog.Logger
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// Prometheus default registry, where internal/pkg/metrics registers.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{deps.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "voting",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	cookies := handler.CookieConfig{Secure: deps.SecureCookies}
	authHandler := handler.NewAuthHandler(deps.Identity, deps.Sessions, deps.Resets, cookies)
	oauthHandler := handler.NewOAuthHandler(deps.Providers, deps.States, deps.Identity, deps.Sessions, cookies, deps.FrontendURL, deps.Logger)
	voteHandler := handler.NewVoteHandler(deps.Votes)
	adminHandler := handler.NewAdminHandler(deps.Admin)
	healthHandler := handler.NewHealthHandler(deps.Health)

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", middleware.Session(deps.Sessions))
	api.GET("/health", healthHandler.Liveness)

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me)
	auth.GET("/test", authHandler.Me)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/:provider", oauthHandler.Start)
	auth.GET("/:provider/callback", oauthHandler.Callback)

	// --- Voter routes ---
	requireAuth := middleware.RequireAuth()
	api.GET("/candidates", voteHandler.ListCandidates, requireAuth)
	api.GET("/check-vote", voteHandler.CheckVote, requireAuth)
	api.POST("/vote", voteHandler.Vote, requireAuth)
	api.GET("/voters", voteHandler.Voters, requireAuth)

	// --- Admin routes ---
	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/candidates", adminHandler.ListCandidates)
	admin.POST("/candidates", adminHandler.CreateCandidate)
	admin.PUT("/candidates/:id", adminHandler.UpdateCandidate)
	admin.DELETE("/candidates/:id", adminHandler.DeleteCandidate)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id/toggle-admin", adminHandler.ToggleAdmin)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.POST("/reset-votes", adminHandler.ResetVotes)
	admin.POST("/create-admin", adminHandler.CreateAdmin)

	return e
}
