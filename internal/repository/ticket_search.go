package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// FindWithFilters runs a filtered, paginated ticket search.  Empty filter
// fields are ignored; page and limit fall back to 1 and 10.
func (r *TicketRepo) FindWithFilters(ctx context.Context, f model.TicketFilter, p model.Pagination) (model.Page[*model.TicketEntity], error) {
	where := []string{}
	args := []any{}

	if f.EventID != "" {
		where = append(where, "t.event_id = ?")
		args = append(args, f.EventID)
	}
	if f.UserID != "" {
		where = append(where, "t.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, f.Type)
	}
	if cond, a := textCondition(f.Query); cond != "" {
		where = append(where, cond)
		args = append(args, a...)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	page, limit := pageOrDefault(p)
	out := model.Page[*model.TicketEntity]{Items: []*model.TicketEntity{}, Page: page, Limit: limit}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+cond, args...).Scan(&total); err != nil {
		return out, err
	}
	out.Total = total
	out.TotalPages = (total + limit - 1) / limit

	dataSQL := `SELECT ` + ticketColumns + ` FROM tickets t WHERE ` + cond + `
		ORDER BY t.created_at ASC, t.id ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanTicket(rows)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, e)
	}
	return out, rows.Err()
}
