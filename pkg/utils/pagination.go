package utils

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

// NormalizePage clamps page to >= 1 and limit to [1, MaxPageLimit], defaulting limit to DefaultPageLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Current: page, Pages: pages, Total: total}
}
