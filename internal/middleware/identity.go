package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated subject stored by JWTAuth, or "anon"
// when the request carries no identity.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// Role returns the authenticated role or an empty string.
func Role(c echo.Context) string {
	s, _ := c.Get(ContextRole).(string)
	return s
}
