package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is a liveness endpoint used by load balancers.  It returns a plain
// text "ok" with status 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Readiness reports whether the backing services answer.  A nil DB or
// Redis client is reported as "disabled" and does not fail the check.
type Readiness struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Check handles GET /readyz.
func (r Readiness) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	out := map[string]string{"database": "disabled", "redis": "disabled"}
	if r.DB != nil {
		out["database"] = "ok"
		if err := r.DB.PingContext(ctx); err != nil {
			out["database"] = "down"
			status = http.StatusServiceUnavailable
		}
	}
	if r.Redis != nil {
		out["redis"] = "ok"
		if err := r.Redis.Ping(ctx).Err(); err != nil {
			out["redis"] = "down"
			status = http.StatusServiceUnavailable
		}
	}
	return c.JSON(status, out)
}
