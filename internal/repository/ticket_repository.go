package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// ticketColumns is the select list shared by every ticket query; scanTicket
// reads the columns in this order.
const ticketColumns = `t.id, t.code, t.event_id, t.user_id, t.price_amount, t.currency,
	t.status, t.type, t.description, t.quantity, t.seat, t.section,
	t.is_reserved, t.reserved_until, t.validated, t.validated_at,
	t.purchased_at, t.canceled_at, t.cancellation_reason, t.created_at, t.updated_at`

// TicketRepo persists tickets in the MySQL 'tickets' table.
type TicketRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewTicketRepo returns a TicketRepo.  A nil clock uses the system clock.
func NewTicketRepo(db *sql.DB, clk clock.Clock) *TicketRepo {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &TicketRepo{db: db, clock: clk}
}

// DB exposes the underlying handle for health checks.
func (r *TicketRepo) DB() *sql.DB { return r.db }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(s rowScanner) (*model.TicketEntity, error) {
	var (
		e                                           model.TicketEntity
		userID                                      sql.NullString
		amount                                      decimal.Decimal
		currency, status, typ                       string
		reservedUntil, validatedAt, purchased, canc sql.NullTime
	)
	err := s.Scan(
		&e.ID, &e.Code, &e.Event.ID, &userID, &amount, &currency,
		&status, &typ, &e.Description, &e.Quantity, &e.Seat, &e.Section,
		&e.IsReserved, &reservedUntil, &e.Validated, &validatedAt,
		&purchased, &canc, &e.CancellationReason, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid && userID.String != "" {
		e.User = &model.Reference{ID: userID.String}
	}
	e.Price = &model.Money{Amount: amount, Currency: currency}
	e.Status = &model.StatusRef{Code: status}
	e.Type = &model.TypeRef{Code: typ}
	e.ReservedUntil = timePtr(reservedUntil)
	e.ValidatedAt = timePtr(validatedAt)
	e.PurchasedAt = timePtr(purchased)
	e.CanceledAt = timePtr(canc)
	return &e, nil
}

func (r *TicketRepo) query(ctx context.Context, where string, args ...any) ([]*model.TicketEntity, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets t`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY t.created_at ASC, t.id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.TicketEntity{}
	for rows.Next() {
		e, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindByID returns (nil, nil) when the ticket does not exist.
func (r *TicketRepo) FindByID(ctx context.Context, id string) (*model.TicketEntity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets t WHERE t.id = ? LIMIT 1`, id)
	e, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *TicketRepo) FindByEvent(ctx context.Context, event model.Reference) ([]*model.TicketEntity, error) {
	return r.query(ctx, "t.event_id = ?", event.ID)
}

func (r *TicketRepo) FindByUser(ctx context.Context, user model.Reference) ([]*model.TicketEntity, error) {
	return r.query(ctx, "t.user_id = ?", user.ID)
}

func (r *TicketRepo) FindByStatus(ctx context.Context, status model.Reference) ([]*model.TicketEntity, error) {
	return r.query(ctx, "t.status = ?", status.ID)
}

func (r *TicketRepo) FindByType(ctx context.Context, typ model.Reference) ([]*model.TicketEntity, error) {
	return r.query(ctx, "t.type = ?", typ.ID)
}

func (r *TicketRepo) FindAll(ctx context.Context) ([]*model.TicketEntity, error) {
	return r.query(ctx, "")
}

// FindAvailableTickets returns available tickets whose hold is absent or
// has lapsed.
func (r *TicketRepo) FindAvailableTickets(ctx context.Context) ([]*model.TicketEntity, error) {
	return r.query(ctx,
		"t.status = ? AND (t.is_reserved = FALSE OR (t.reserved_until IS NOT NULL AND t.reserved_until <= ?))",
		model.StatusAvailable, stamp(r.clock.Now()))
}

func (r *TicketRepo) FindSoldTickets(ctx context.Context) ([]*model.TicketEntity, error) {
	return r.query(ctx, "t.status = ?", model.StatusSold)
}

func (r *TicketRepo) FindActiveTickets(ctx context.Context) ([]*model.TicketEntity, error) {
	return r.query(ctx, "t.status <> ? AND t.validated = FALSE", model.StatusCanceled)
}

func (r *TicketRepo) FindInactiveTickets(ctx context.Context) ([]*model.TicketEntity, error) {
	return r.query(ctx, "(t.status = ? OR t.validated = TRUE)", model.StatusCanceled)
}

func (r *TicketRepo) SearchByText(ctx context.Context, query string) ([]*model.TicketEntity, error) {
	cond, args := textCondition(query)
	return r.query(ctx, cond, args...)
}

// Save inserts a new ticket or updates an existing one guarded by its
// updated_at value.
func (r *TicketRepo) Save(ctx context.Context, e *model.TicketEntity) (*model.TicketEntity, error) {
	c := cloneEntity(e)
	now := stamp(r.clock.Now())
	amount, currency := decimal.Zero, ""
	if c.Price != nil {
		amount, currency = c.Price.Amount, c.Price.Currency
	}
	status := model.StatusAvailable
	if c.Status != nil && c.Status.Code != "" {
		status = c.Status.Code
	}
	typ := ""
	if c.Type != nil {
		typ = c.Type.Code
	}
	var userID sql.NullString
	if c.User != nil && c.User.ID != "" {
		userID = sql.NullString{String: c.User.ID, Valid: true}
	}

	if c.ID == "" {
		c.ID = newTicketID()
		if c.Code == "" {
			c.Code = newTicketCode()
		}
		const ins = `INSERT INTO tickets
			(id, code, event_id, user_id, price_amount, currency, status, type, description,
			 quantity, seat, section, is_reserved, reserved_until, validated, validated_at,
			 purchased_at, canceled_at, cancellation_reason, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
		_, err := r.db.ExecContext(ctx, ins,
			c.ID, c.Code, c.Event.ID, userID, amount, currency, status, typ, c.Description,
			c.Quantity, c.Seat, c.Section, c.IsReserved, nullTime(c.ReservedUntil), c.Validated,
			nullTime(c.ValidatedAt), nullTime(c.PurchasedAt), nullTime(c.CanceledAt),
			c.CancellationReason, now, now)
		if err != nil {
			return nil, err
		}
	} else {
		const upd = `UPDATE tickets SET
			event_id=?, user_id=?, price_amount=?, currency=?, status=?, type=?, description=?,
			quantity=?, seat=?, section=?, is_reserved=?, reserved_until=?, validated=?,
			validated_at=?, purchased_at=?, canceled_at=?, cancellation_reason=?, updated_at=?
			WHERE id=? AND updated_at=?`
		res, err := r.db.ExecContext(ctx, upd,
			c.Event.ID, userID, amount, currency, status, typ, c.Description,
			c.Quantity, c.Seat, c.Section, c.IsReserved, nullTime(c.ReservedUntil), c.Validated,
			nullTime(c.ValidatedAt), nullTime(c.PurchasedAt), nullTime(c.CanceledAt),
			c.CancellationReason, nextStamp(now, c.UpdatedAt), c.ID, stamp(c.UpdatedAt))
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			var one int
			err := r.db.QueryRowContext(ctx, "SELECT 1 FROM tickets WHERE id=? LIMIT 1", c.ID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTicketNotFound
			}
			if err != nil {
				return nil, err
			}
			return nil, ErrConflict
		}
	}
	saved, err := r.FindByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrTicketNotFound
	}
	return saved, nil
}

// Delete reports whether a row was removed.
func (r *TicketRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tickets WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func textCondition(query string) (string, []any) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", nil
	}
	like := "%" + q + "%"
	return "(LOWER(t.code) LIKE ? OR LOWER(t.description) LIKE ? OR LOWER(t.seat) LIKE ? OR LOWER(t.section) LIKE ?)",
		[]any{like, like, like, like}
}
