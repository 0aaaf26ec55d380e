package catalog

// TotalPages derives the page count from an item count. It is floored at 1
// so the pager always has a valid page to point at, even with no results.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ClampPage forces page into [1, totalPages]. A page left over from a
// larger result set is invalid against a smaller one and must be pulled
// back into range before the next fetch.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
