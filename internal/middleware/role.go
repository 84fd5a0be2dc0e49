package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Roles carried in the "role" claim.
const (
	RoleOrganizer = "ORGANIZER" // manages an event's ticket inventory
	RoleStaff     = "STAFF"     // scans tickets at the gate
	RoleCustomer  = "CUSTOMER"
)

// AnyRole lists every role accepted on authenticated routes.
var AnyRole = []string{RoleOrganizer, RoleStaff, RoleCustomer}

// RequireRole rejects requests whose role, as stored by JWTAuth, is not one
// of roles with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
