package tgui

import "fmt"

// PaginateSlice returns a sub-slice for the requested page and helper flags.
// page is 0-based. size must be > 0.
func PaginateSlice[T any](items []T, page, size int) (sub []T, page2 int, hasPrev bool, hasNext bool) {
	if size <= 0 {
		size = 1
	}
	if page < 0 {
		page = 0
	}
	total := len(items)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	sub = items[start:end]
	hasPrev = page > 0
	hasNext = end < total
	return sub, page, hasPrev, hasNext
}

// PageLabel returns a compact, human-friendly pagination label.
// page is 0-based.
func PageLabel(page, total int) string {
	if total <= 0 {
		return "1/1"
	}
	if page < 0 {
		page = 0
	}
	if page >= total {
		page = total - 1
	}
	return fmt.Sprintf("%d/%d", page+1, total)
}
