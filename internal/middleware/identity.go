package middleware

// identity.go provides the user identifier used when building rate-limit
// keys. Registration is a public endpoint, so most callers resolve to
// "guest" and are limited by IP instead.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's id from the context as a
// string, or "guest" when no user is authenticated.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "guest"
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	}
	return "guest"
}
