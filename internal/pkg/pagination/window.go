package pagination

// Ellipsis marks a gap in the visible page list
const Ellipsis = -1

// windowDelta is how many neighbours around the current page stay visible
const windowDelta = 2

// Window describes the pagination control for one page of results
type Window struct {
	Current    int   // zero-based
	TotalPages int
	Total      int64
	StartItem  int64 // one-based, inclusive
	EndItem    int64 // one-based, inclusive
	Pages      []int // one-based page labels, Ellipsis for gaps
	HasPrev    bool
	HasNext    bool
}

// Visible reports whether the control should be shown at all
func (w Window) Visible() bool {
	return w.TotalPages > 1
}

// NewWindow computes the visible controls for the given page
func NewWindow(current, totalPages, pageSize int, total int64) Window {
	start := int64(current*pageSize) + 1
	end := int64((current + 1) * pageSize)
	if end > total {
		end = total
	}
	if start > end {
		// empty result or past the last page
		start, end = 0, 0
	}

	return Window{
		Current:    current,
		TotalPages: totalPages,
		Total:      total,
		StartItem:  start,
		EndItem:    end,
		Pages:      visiblePages(current, totalPages),
		HasPrev:    current > 0,
		HasNext:    current < totalPages-1,
	}
}

// visiblePages always shows the first and last page and a window
// of windowDelta pages around the current one.
func visiblePages(current, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	label := current + 1

	pages := []int{1}
	if label-windowDelta > 2 {
		pages = append(pages, Ellipsis)
	}

	lo := label - windowDelta
	if lo < 2 {
		lo = 2
	}
	hi := label + windowDelta
	if hi > totalPages-1 {
		hi = totalPages - 1
	}
	for i := lo; i <= hi; i++ {
		pages = append(pages, i)
	}

	if label+windowDelta < totalPages-1 {
		pages = append(pages, Ellipsis, totalPages)
	} else if totalPages > 1 {
		pages = append(pages, totalPages)
	}
	return pages
}
