package ticket

import "github.com/iliyamo/ticket-lifecycle/internal/model"

// Paging defaults applied when the caller leaves page or limit unset.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// NormalizePagination fills unset or non-positive values with defaults.
func NormalizePagination(p *model.Pagination) model.Pagination {
	out := model.Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if p == nil {
		return out
	}
	if p.Page > 0 {
		out.Page = p.Page
	}
	if p.Limit > 0 {
		out.Limit = p.Limit
	}
	return out
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Aggregate turns a store page into the client-facing page: paging
// parameters are defaulted, TotalPages is recomputed and Items is never nil.
func Aggregate[T any](in model.Page[T]) model.Page[T] {
	p := NormalizePagination(&model.Pagination{Page: in.Page, Limit: in.Limit})
	items := in.Items
	if items == nil {
		items = []T{}
	}
	return model.Page[T]{
		Items:      items,
		Total:      in.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(in.Total, p.Limit),
	}
}
