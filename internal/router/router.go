// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/masterfabric/onboarding-events/internal/handler"
	"github.com/masterfabric/onboarding-events/internal/middleware"
	"github.com/masterfabric/onboarding-events/internal/model"
)

// RegisterRoutes registers routes that need no authentication or state.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// authenticated profile endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout needs only the refresh token in the body, not an access token,
	// so an expired session can still be terminated.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleMember),
	)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the guest-facing catalogue, registration and
// lookup endpoints. The catalogue list sits behind the response cache and
// the write endpoints behind the rate limiter; either middleware degrades
// to a pass-through when Redis is unavailable.
func RegisterPublic(e *echo.Echo, p *handler.PublicEventHandler, r *handler.RegistrationHandler, l *handler.LookupHandler, cached, limited echo.MiddlewareFunc) {
	e.GET("/v1/events", p.List, cached)
	e.GET("/v1/events/:id", p.Get, cached)

	e.POST("/v1/events/register", r.Register, limited)

	e.GET("/v1/events/participants/reference/:reference", l.ByReference)
	// The email travels in the request body so addresses stay out of URLs
	// and access logs.
	e.POST("/v1/events/participants/email", l.ByEmail, limited)
}

// RegisterVerification registers the email verification flow. Both
// endpoints require a session; sending is additionally rate limited to
// keep the mailer from being used as a spam relay.
func RegisterVerification(e *echo.Echo, v *handler.VerificationHandler, jwtSecret string, limited echo.MiddlewareFunc) {
	g := e.Group("/v1/verification",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleMember),
	)
	g.POST("/send-code", v.SendCode, limited)
	g.POST("/verify-code", v.VerifyCode)
}
