package handler // handler exposes the ticket commands and queries over HTTP

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-lifecycle/internal/middleware"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
	"github.com/iliyamo/ticket-lifecycle/internal/monitoring"
	"github.com/iliyamo/ticket-lifecycle/internal/realtime"
	"github.com/iliyamo/ticket-lifecycle/internal/repository"
	"github.com/iliyamo/ticket-lifecycle/internal/ticket"
)

// errNotOwner rejects a customer acting on a ticket sold to someone else.
var errNotOwner = errors.New("ticket belongs to another user")

// TicketHandler maps HTTP requests onto ticket commands and queries.
type TicketHandler struct {
	deps        ticket.Deps
	cache       *middleware.TicketCache // optional
	broadcaster *realtime.Broadcaster   // optional
	maxLimit    int
	logger      *slog.Logger
}

// NewTicketHandler panics when deps has no ticket access.
func NewTicketHandler(deps ticket.Deps, cache *middleware.TicketCache, b *realtime.Broadcaster, maxLimit int) *TicketHandler {
	if deps.Tickets == nil {
		panic("nil ticket access passed to NewTicketHandler")
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketHandler{deps: deps, cache: cache, broadcaster: b, maxLimit: maxLimit, logger: logger}
}

// Create handles POST /v1/tickets.
func (h *TicketHandler) Create(c echo.Context) error {
	var in ticket.CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	t, err := ticket.NewCreateTicket(h.deps, in).Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "create", err)
	}
	h.changed(c.Request().Context(), "create", *t)
	return c.JSON(http.StatusCreated, t)
}

// Get handles GET /v1/tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	t, err := ticket.NewGetTicket(h.deps, c.Param("id")).Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "get", err)
	}
	return c.JSON(http.StatusOK, t)
}

// Update handles PATCH /v1/tickets/:id.
func (h *TicketHandler) Update(c echo.Context) error {
	var p ticket.Patch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	t, err := ticket.NewUpdateTicket(h.deps, c.Param("id"), p).Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "update", err)
	}
	h.changed(c.Request().Context(), "update", *t)
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/tickets/:id.
func (h *TicketHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if err := ticket.NewDeleteTicket(h.deps, c.Param("id")).Execute(ctx); err != nil {
		return h.fail(c, "delete", err)
	}
	h.changed(ctx, "delete", model.Ticket{ID: c.Param("id"), Status: "deleted"})
	return c.NoContent(http.StatusNoContent)
}

// Cancel handles POST /v1/tickets/:id/cancel with an optional reason.
func (h *TicketHandler) Cancel(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.checkOwner(c); err != nil {
		return h.fail(c, "cancel", err)
	}
	return h.transition(c, "cancel", ticket.NewCancelTicket(h.deps, c.Param("id"), strings.TrimSpace(body.Reason)))
}

// Validate handles POST /v1/tickets/:id/validate.
func (h *TicketHandler) Validate(c echo.Context) error {
	return h.transition(c, "validate", ticket.NewValidateTicket(h.deps, c.Param("id")))
}

type executor interface {
	Execute(ctx context.Context) error
}

// transition runs a state-changing command and answers with the ticket as
// stored afterwards.
func (h *TicketHandler) transition(c echo.Context, op string, cmd executor) error {
	ctx := c.Request().Context()
	if err := cmd.Execute(ctx); err != nil {
		return h.fail(c, op, err)
	}
	t, err := ticket.NewGetTicket(h.deps, c.Param("id")).Execute(ctx)
	if err != nil {
		return h.fail(c, op, err)
	}
	h.changed(ctx, op, *t)
	return c.JSON(http.StatusOK, t)
}

// Artifact handles GET /v1/tickets/:id/artifact and returns the document
// as a download.
func (h *TicketHandler) Artifact(c echo.Context) error {
	if err := h.checkOwner(c); err != nil {
		return h.fail(c, "artifact", err)
	}
	art, err := ticket.NewProduceArtifact(h.deps, c.Param("id")).Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "artifact", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+art.Filename+`"`)
	if art.Signature != "" {
		c.Response().Header().Set("X-Ticket-Signature", art.Signature)
	}
	return c.Blob(http.StatusOK, art.ContentType, art.Content)
}

// Dispatch handles POST /v1/tickets/:id/dispatch.  The body may name a
// recipient; otherwise the ticket owner's address is used.
func (h *TicketHandler) Dispatch(c echo.Context) error {
	var body struct {
		Recipient string `json:"recipient"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.checkOwner(c); err != nil {
		return h.fail(c, "dispatch", err)
	}
	out, err := ticket.NewDispatchTicket(h.deps, c.Param("id"), body.Recipient).Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "dispatch", err)
	}
	monitoring.TrackOperation("dispatch", monitoring.OutcomeOK)
	return c.JSON(http.StatusAccepted, out)
}

// List handles GET /v1/tickets.  With ?scope= it returns a predefined
// listing; otherwise it runs a filtered, paginated search over event_id,
// user_id, status, type and q.
func (h *TicketHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if scope := strings.ToLower(strings.TrimSpace(c.QueryParam("scope"))); scope != "" {
		items, err := ticket.NewListTickets(h.deps, ticket.Scope(scope)).Execute(ctx)
		if err != nil {
			return h.fail(c, "list", err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
	}

	filter := &model.TicketFilter{
		EventID: strings.TrimSpace(c.QueryParam("event_id")),
		UserID:  strings.TrimSpace(c.QueryParam("user_id")),
		Status:  strings.TrimSpace(c.QueryParam("status")),
		Type:    strings.TrimSpace(c.QueryParam("type")),
		Query:   strings.TrimSpace(c.QueryParam("q")),
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	res, err := ticket.NewSearchTickets(h.deps, filter, &model.Pagination{Page: page, Limit: limit}).Execute(ctx)
	if err != nil {
		return h.fail(c, "search", err)
	}
	return c.JSON(http.StatusOK, res)
}

// SearchText handles GET /v1/tickets/search?q=.
func (h *TicketHandler) SearchText(c echo.Context) error {
	items, err := ticket.NewSearchText(h.deps, c.QueryParam("q")).Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "search", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// ByEvent handles GET /v1/events/:id/tickets.
func (h *TicketHandler) ByEvent(c echo.Context) error {
	return h.listing(c, ticket.NewTicketsByEvent(h.deps, ticket.ID(c.Param("id"))))
}

// ByUser handles GET /v1/users/:id/tickets.
func (h *TicketHandler) ByUser(c echo.Context) error {
	return h.listing(c, ticket.NewTicketsByUser(h.deps, ticket.ID(c.Param("id"))))
}

// Mine handles GET /v1/me/tickets for the authenticated subject.
func (h *TicketHandler) Mine(c echo.Context) error {
	return h.listing(c, ticket.NewTicketsByUser(h.deps, ticket.ID(middleware.UserID(c))))
}

// ByStatus handles GET /v1/statuses/:status/tickets.
func (h *TicketHandler) ByStatus(c echo.Context) error {
	return h.listing(c, ticket.NewTicketsByStatus(h.deps, ticket.ID(c.Param("status"))))
}

// ByType handles GET /v1/types/:type/tickets.
func (h *TicketHandler) ByType(c echo.Context) error {
	return h.listing(c, ticket.NewTicketsByType(h.deps, ticket.ID(c.Param("type"))))
}

type lister interface {
	Execute(ctx context.Context) ([]model.Ticket, error)
}

func (h *TicketHandler) listing(c echo.Context, q lister) error {
	items, err := q.Execute(c.Request().Context())
	if err != nil {
		return h.fail(c, "list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// checkOwner lets customers act only on tickets sold to them.  Staff and
// organizers are not restricted.
func (h *TicketHandler) checkOwner(c echo.Context) error {
	if middleware.Role(c) != middleware.RoleCustomer {
		return nil
	}
	t, err := ticket.NewGetTicket(h.deps, c.Param("id")).Execute(c.Request().Context())
	if err != nil {
		return err
	}
	if t.UserID == "" || t.UserID != middleware.UserID(c) {
		return errNotOwner
	}
	return nil
}

// changed runs the side effects of a successful mutation.
func (h *TicketHandler) changed(ctx context.Context, op string, t model.Ticket) {
	monitoring.TrackOperation(op, monitoring.OutcomeOK)
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.WarnContext(ctx, "ticket cache invalidation failed", "op", op, "error", err)
	}
	h.broadcaster.TicketChanged(ctx, op, t)
}

// fail translates command and query errors into HTTP responses.
func (h *TicketHandler) fail(c echo.Context, op string, err error) error {
	var ve *ticket.ValidationError
	switch {
	case errors.As(err, &ve):
		monitoring.TrackOperation(op, monitoring.OutcomeRejected)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "validation_error",
			"field":   ve.Field,
			"message": ve.Message,
		})
	case errors.Is(err, errNotOwner):
		monitoring.TrackOperation(op, monitoring.OutcomeRejected)
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, ticket.ErrNotFound):
		monitoring.TrackOperation(op, monitoring.OutcomeRejected)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not_found", "message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		monitoring.TrackOperation(op, monitoring.OutcomeConflict)
		return c.JSON(http.StatusConflict, map[string]string{"error": "conflict", "message": "ticket was modified concurrently, reload and retry"})
	case errors.Is(err, repository.ErrTicketNotFound):
		monitoring.TrackOperation(op, monitoring.OutcomeRejected)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not_found", "message": "ticket not found"})
	case errors.Is(err, ticket.ErrDispatch):
		monitoring.TrackOperation(op, monitoring.OutcomeError)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "dispatch_failed", "message": err.Error()})
	}
	monitoring.TrackOperation(op, monitoring.OutcomeError)
	h.logger.ErrorContext(c.Request().Context(), "ticket request failed", "op", op, "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal_error"})
}
