package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/handler"
	"github.com/iliyamo/ticket-lifecycle/internal/mapper"
	"github.com/iliyamo/ticket-lifecycle/internal/middleware"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
	"github.com/iliyamo/ticket-lifecycle/internal/repository"
	"github.com/iliyamo/ticket-lifecycle/internal/router"
	"github.com/iliyamo/ticket-lifecycle/internal/ticket"
	"github.com/iliyamo/ticket-lifecycle/internal/utils"
)

const secret = "handler-secret"

var now = time.Date(2026, 6, 12, 19, 30, 0, 0, time.UTC)

type mailerFunc func(ctx context.Context, msg model.Message) error

func (f mailerFunc) Send(ctx context.Context, msg model.Message) error { return f(ctx, msg) }

type api struct {
	e      *echo.Echo
	tokens map[string]string
}

func newAPI(t *testing.T, store ticket.Store, mailer ticket.Mailer) *api {
	t.Helper()
	clk := clock.NewFixed(now)
	if store == nil {
		store = repository.NewMemoryTicketStore(clk)
	}
	if mailer == nil {
		mailer = mailerFunc(func(context.Context, model.Message) error { return nil })
	}
	deps := ticket.Deps{
		Tickets: ticket.NewAccess(store, mapper.New(mapper.StandardDefaults), clk),
		Events:  repository.NewMemoryEvents(model.Event{ID: "ev-1", Name: "Spring Concert", StartsAt: now.Add(48 * time.Hour)}),
		Users:   repository.NewMemoryUsers(model.User{ID: "u-1", Name: "Ana", Email: "ana@example.com"}),
		Mailer:  mailer,
		Clock:   clk,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	e := echo.New()
	router.RegisterRoutes(e, handler.Readiness{})
	router.RegisterTickets(e, router.TicketRoutes{
		Handler:   handler.NewTicketHandler(deps, nil, nil, 5),
		JWTSecret: secret,
	})

	tokens := map[string]string{}
	for user, role := range map[string]string{
		"org-1": middleware.RoleOrganizer,
		"staff": middleware.RoleStaff,
		"u-1":   middleware.RoleCustomer,
	} {
		tok, err := utils.NewAccessToken(secret, user, role, time.Hour, time.Now())
		require.NoError(t, err)
		tokens[role] = tok.Token
	}
	tok, err := utils.NewAccessToken(secret, "mallory", middleware.RoleCustomer, time.Hour, time.Now())
	require.NoError(t, err)
	tokens["mallory"] = tok.Token
	return &api{e: e, tokens: tokens}
}

func (a *api) do(method, path, role, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if role != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.tokens[role])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) create(t *testing.T) model.Ticket {
	t.Helper()
	rec := a.do(http.MethodPost, "/v1/tickets", middleware.RoleOrganizer,
		`{"event_id":"ev-1","type":"general","description":"Standing","price":"10.50 EUR","quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tk model.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tk))
	return tk
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	a := newAPI(t, nil, nil)
	assert.Equal(t, "ok", a.do(http.MethodGet, "/healthz", "", "").Body.String())

	rec := a.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"database": "disabled", "redis": "disabled"}, decode[map[string]string](t, rec))
}

func TestAuthAndRoles(t *testing.T) {
	a := newAPI(t, nil, nil)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/v1/tickets", "", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/tickets", middleware.RoleCustomer, `{}`).Code)

	tk := a.create(t)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/validate", middleware.RoleCustomer, "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, "/v1/tickets/"+tk.ID, middleware.RoleStaff, "").Code)
}

func TestCreateValidationError(t *testing.T) {
	a := newAPI(t, nil, nil)
	rec := a.do(http.MethodPost, "/v1/tickets", middleware.RoleOrganizer,
		`{"event_id":"ev-1","type":"general","description":"x","price":"9.999 EUR","quantity":1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, "price", body["field"])
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t, nil, nil)
	tk := a.create(t)
	assert.Equal(t, model.StatusAvailable, tk.Status)

	rec := a.do(http.MethodGet, "/v1/tickets/"+tk.ID, middleware.RoleCustomer, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPatch, "/v1/tickets/"+tk.ID, middleware.RoleOrganizer, `{"status":"sold","user_id":"u-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusSold, decode[model.Ticket](t, rec).Status)

	rec = a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/validate", middleware.RoleStaff, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[model.Ticket](t, rec).Validated)

	rec = a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/cancel", middleware.RoleCustomer, `{"reason":"late"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already been utilized")

	rec = a.do(http.MethodGet, "/v1/me/tickets", middleware.RoleCustomer, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total"])
}

func TestNotFound(t *testing.T) {
	a := newAPI(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/tickets/nope", middleware.RoleCustomer, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/v1/tickets/nope", middleware.RoleOrganizer, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPatch, "/v1/tickets/nope", middleware.RoleOrganizer, `{"seat":"A1"}`).Code)
}

func TestDeleteTicket(t *testing.T) {
	a := newAPI(t, nil, nil)
	tk := a.create(t)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/v1/tickets/"+tk.ID, middleware.RoleOrganizer, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/tickets/"+tk.ID, middleware.RoleOrganizer, "").Code)
}

func TestListPaginationIsCapped(t *testing.T) {
	a := newAPI(t, nil, nil)
	for i := 0; i < 7; i++ {
		a.create(t)
	}
	rec := a.do(http.MethodGet, "/v1/tickets?event_id=ev-1&limit=50&page=2", middleware.RoleCustomer, "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[model.Page[model.Ticket]](t, rec)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)

	rec = a.do(http.MethodGet, "/v1/tickets?scope=available", middleware.RoleCustomer, "")
	assert.EqualValues(t, 7, decode[map[string]any](t, rec)["total"])

	rec = a.do(http.MethodGet, "/v1/tickets?scope=bogus", middleware.RoleCustomer, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtifactDownload(t *testing.T) {
	a := newAPI(t, nil, nil)
	tk := a.create(t)

	rec := a.do(http.MethodGet, "/v1/tickets/"+tk.ID+"/artifact", middleware.RoleOrganizer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="ticket-`+tk.Code+`.txt"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "EVENT TICKET"))
}

func TestDispatchFailureIsBadGateway(t *testing.T) {
	a := newAPI(t, nil, mailerFunc(func(context.Context, model.Message) error { return errors.New("broker down") }))
	tk := a.create(t)

	rec := a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/dispatch", middleware.RoleOrganizer, `{"recipient":"box@example.com"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "broker down")
}

func TestDispatchAccepted(t *testing.T) {
	var sent model.Message
	a := newAPI(t, nil, mailerFunc(func(_ context.Context, msg model.Message) error { sent = msg; return nil }))
	tk := a.create(t)

	rec := a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/dispatch", middleware.RoleOrganizer, `{"recipient":"box@example.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "box@example.com", sent.To)
}

func TestCustomerActsOnlyOnOwnTickets(t *testing.T) {
	sent := 0
	a := newAPI(t, nil, mailerFunc(func(context.Context, model.Message) error { sent++; return nil }))
	tk := a.create(t)

	// Unsold tickets belong to nobody yet.
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/v1/tickets/"+tk.ID+"/artifact", middleware.RoleCustomer, "").Code)

	rec := a.do(http.MethodPatch, "/v1/tickets/"+tk.ID, middleware.RoleOrganizer, `{"status":"sold","user_id":"u-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/v1/tickets/"+tk.ID+"/artifact", "mallory", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "EVENT TICKET")

	rec = a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/dispatch", "mallory", `{"recipient":"mallory@example.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, sent)

	rec = a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/cancel", "mallory", `{"reason":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/v1/tickets/"+tk.ID, middleware.RoleOrganizer, "")
	got := decode[model.Ticket](t, rec)
	assert.Equal(t, model.StatusSold, got.Status)
	assert.Empty(t, got.CancellationReason)

	rec = a.do(http.MethodGet, "/v1/tickets/"+tk.ID+"/artifact", middleware.RoleCustomer, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/dispatch", middleware.RoleCustomer, "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 1, sent)
	rec = a.do(http.MethodPost, "/v1/tickets/"+tk.ID+"/cancel", middleware.RoleCustomer, `{"reason":"cannot attend"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusCanceled, decode[model.Ticket](t, rec).Status)
}

// conflictStore rejects every update as stale.
type conflictStore struct {
	*repository.MemoryTicketStore
}

func (s conflictStore) Save(ctx context.Context, e *model.TicketEntity) (*model.TicketEntity, error) {
	if e.ID != "" {
		return nil, repository.ErrConflict
	}
	return s.MemoryTicketStore.Save(ctx, e)
}

func TestStaleWriteIsConflict(t *testing.T) {
	a := newAPI(t, conflictStore{repository.NewMemoryTicketStore(clock.NewFixed(now))}, nil)
	tk := a.create(t)

	rec := a.do(http.MethodPatch, "/v1/tickets/"+tk.ID, middleware.RoleOrganizer, `{"seat":"B2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
