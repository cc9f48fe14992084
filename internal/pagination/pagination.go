// Package pagination provides pure helpers for paging in-memory slices.
package pagination

// Page is one page of a paginated collection. StartIndex/EndIndex are the
// raw slice bounds before clamping, matching what list footers display
// ("showing 21-30 of 23" renders from these plus the total).
type Page[T any] struct {
	Slice      []T
	TotalPages int
	StartIndex int
	EndIndex   int
}

// DefaultPerPage is used when a caller passes a non-positive page size.
const DefaultPerPage = 5

// Paginate slices items for a 1-indexed page of perPage entries.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	totalPages := (len(items) + perPage - 1) / perPage

	page = ClampPage(page, totalPages)
	startIndex := (page - 1) * perPage
	endIndex := startIndex + perPage

	sliceEnd := endIndex
	if sliceEnd > len(items) {
		sliceEnd = len(items)
	}
	sliceStart := startIndex
	if sliceStart > len(items) {
		sliceStart = len(items)
	}

	return Page[T]{
		Slice:      items[sliceStart:sliceEnd],
		TotalPages: totalPages,
		StartIndex: startIndex,
		EndIndex:   endIndex,
	}
}

// ClampPage keeps page navigation within [1, totalPages]. A collection
// with no pages still reports page 1.
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
