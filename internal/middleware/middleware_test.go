package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/config"
)

const secret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func protected() *echo.Echo {
	e := echo.New()
	g := e.Group("", JWTAuth(secret))
	g.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c)+"/"+Role(c))
	})
	g.GET("/gate", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireRole(RoleStaff, RoleOrganizer))
	return e
}

func TestJWTAuth(t *testing.T) {
	e := protected()
	exp := time.Now().Add(time.Hour).Unix()

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": RoleStaff, "exp": exp}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "subject is required")

	expired := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	rec = serve(e, http.MethodGet, "/me", expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": RoleCustomer, "exp": exp}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1/CUSTOMER", rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	e := protected()
	exp := time.Now().Add(time.Hour).Unix()

	customer := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": RoleCustomer, "exp": exp})
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/gate", customer).Code)

	staff := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u2", "role": RoleStaff, "exp": exp})
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/gate", staff).Code)
}

func TestUserIDDefaults(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "anon", UserID(c))
	assert.Equal(t, "", Role(c))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"id":"t1"}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"id":"t1"}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "tickets:cache",
	}
}

func TestTicketCache_KeyIncludesPathParams(t *testing.T) {
	e := echo.New()
	key := func(id string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/tickets/"+id, nil), httptest.NewRecorder())
		c.SetPath("/v1/tickets/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return cacheKeyFrom(cacheConfig(), c)
	}
	assert.NotEqual(t, key("a"), key("b"))
	assert.Equal(t, key("a"), key("a"))
	assert.Contains(t, key("a"), "tickets:cache:")
}

func TestTicketCache_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	tc := NewTicketCache(cacheConfig(), rdb)

	e := echo.New()
	called := false
	e.GET("/v1/tickets/:id", func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "fresh")
	}, tc.Middleware())

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/tickets/t1", nil), httptest.NewRecorder())
	c.SetPath("/v1/tickets/:id")
	c.SetParamNames("id")
	c.SetParamValues("t1")
	key := cacheKeyFrom(cacheConfig(), c)

	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"id":"t1"}`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	rec := serve(e, http.MethodGet, "/v1/tickets/t1", "")
	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"id":"t1"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketCache_DisabledPassesThrough(t *testing.T) {
	cfg := cacheConfig()
	cfg.Enabled = false
	rdb, mock := redismock.NewClientMock()
	tc := NewTicketCache(cfg, rdb)

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, tc.Middleware())
	rec := serve(e, http.MethodGet, "/x", "")
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, tc.Invalidate(context.Background()))
}

func TestTicketCache_Invalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	tc := NewTicketCache(cacheConfig(), rdb)

	mock.ExpectScan(0, "tickets:cache:*", 100).SetVal([]string{"tickets:cache:a", "tickets:cache:b"}, 7)
	mock.ExpectDel("tickets:cache:a", "tickets:cache:b").SetVal(2)
	mock.ExpectScan(7, "tickets:cache:*", 100).SetVal([]string{}, 0)

	require.NoError(t, tc.Invalidate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenBucket_RedisErrorLetsRequestThrough(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(cfg, rdb, clock.NewFixed(time.Unix(0, 0))))

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/x", "").Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/tickets")
	c.Set(ContextUserID, "u7")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:u7:route:POST /v1/tickets", rateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:u7", rateKey(cfg, c))

	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:u7:route:POST /v1/tickets", rateKey(cfg, c))

	cfg.KeyStrategy = "bogus"
	assert.Equal(t, "rl:ip:10.0.0.1:user:u7:route:POST /v1/tickets", rateKey(cfg, c))
}

func TestParseDecision(t *testing.T) {
	d, err := parseDecision([]any{int64(1), int64(4), int64(0)})
	require.NoError(t, err)
	assert.True(t, d.allowed)
	assert.EqualValues(t, 4, d.remaining)

	d, err = parseDecision([]any{int64(0), int64(0), int64(1500)})
	require.NoError(t, err)
	assert.False(t, d.allowed)
	assert.Equal(t, 2, d.retryAfter())

	_, err = parseDecision([]any{int64(1), "4"})
	assert.Error(t, err)
	_, err = parseDecision("OK")
	assert.Error(t, err)
}

func TestApplyDecision_Rejects(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/tickets", nil), rec)
	called := false
	next := func(echo.Context) error { called = true; return nil }

	cfg := config.RateLimitConfig{Capacity: 3}
	require.NoError(t, applyDecision(c, cfg, bucketDecision{remaining: 0, waitMs: 200}, next))
	assert.False(t, called)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/tickets", nil), rec)
	require.NoError(t, applyDecision(c, cfg, bucketDecision{allowed: true, remaining: 2}, next))
	assert.True(t, called)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))
}
