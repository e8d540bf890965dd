package listing

// Page is one slice of a filtered and sorted list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// TotalPages returns ceil(count/pageSize), at least 1.
func TotalPages(count, pageSize int) int {
	if pageSize < 1 || count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns items[(page-1)*pageSize : page*pageSize] with page clamped.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	total := TotalPages(len(items), pageSize)
	page = ClampPage(page, total)

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	pageItems := make([]T, 0, max(end-start, 0))
	if start < end {
		pageItems = append(pageItems, items[start:end]...)
	}

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(items),
		TotalPages: total,
	}
}
