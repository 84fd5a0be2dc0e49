package model

// TicketFilter narrows a ticket search.  Empty fields are ignored.  Query is
// matched case-insensitively against code, description, seat and section.
type TicketFilter struct {
	EventID string
	UserID  string
	Status  string
	Type    string
	Query   string
}

// Pagination selects a page of results.  Zero values mean "use the default".
type Pagination struct {
	Page  int
	Limit int
}

// Page is a single page of results together with the paging arithmetic the
// client needs to render navigation.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}
