package models

import "strconv"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Pagination is the envelope every list endpoint returns:
// {data[], pagination:{page, limit, total, pages}}.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ParsePageQuery normalizes raw page/limit query values. Bad or missing
// input falls back to page 1 / the default limit.
func ParsePageQuery(pageStr string, limitStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPagination(page int, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
