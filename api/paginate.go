package api

// Meta describes one page of a paginated listing
type Meta struct {
	Max     int `json:"max"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
	Total   int `json:"total"`
}

// Paginate returns the page-th slice of perPage items. Pages start at 1;
// a page past the end is empty. Max is never below 1.
func Paginate[T any](items []T, page, perPage int) ([]T, Meta) {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	maxPage := (total + perPage - 1) / perPage
	if maxPage < 1 {
		maxPage = 1
	}

	meta := Meta{Max: maxPage, PerPage: perPage, Page: page, Total: total}

	// compare pages before multiplying so huge page numbers cannot overflow
	if page > maxPage || total == 0 {
		return make([]T, 0), meta
	}
	start := (page - 1) * perPage
	end := min(start+perPage, total)

	return items[start:end], meta
}
