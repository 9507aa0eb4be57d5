package httpserver

import "strconv"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageBounds turns 1-based page and size query values into offset and limit.
func pageBounds(pageRaw, sizeRaw string) (offset, limit int) {
	page, _ := strconv.Atoi(pageRaw)
	size, _ := strconv.Atoi(sizeRaw)
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return (page - 1) * size, size
}
