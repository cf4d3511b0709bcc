package core

// FallbackPageSize is used when the data service cannot supply a default.
const FallbackPageSize = 10

// DefaultPageSizeOptions are the page sizes offered by the listing view.
var DefaultPageSizeOptions = []int{10, 25, 50, 100, 200}

// PageState is the complete render state of the listing view.
//
// It is an immutable value: every transition returns a new PageState and the
// Listing replaces its copy wholesale. Rows is never mutated in place.
type PageState struct {
	PageSize     int
	CurrentPage  int // 1-based
	TotalRecords int
	Rows         []SensorRecord
}

// NewPageState returns the state of a freshly initialized view.
func NewPageState(pageSize int) PageState {
	if pageSize <= 0 {
		pageSize = FallbackPageSize
	}
	return PageState{PageSize: pageSize, CurrentPage: 1}
}

// TotalPages returns ceil(TotalRecords / PageSize), or 0 when there are no records.
func (p PageState) TotalPages() int {
	if p.TotalRecords <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (p.TotalRecords + p.PageSize - 1) / p.PageSize
}

// LastPage is the highest valid CurrentPage. An empty dataset still has page 1.
func (p PageState) LastPage() int {
	return max(p.TotalPages(), 1)
}

// Offset is the index of the first record on the current page.
func (p PageState) Offset() int {
	if p.CurrentPage < 1 {
		return 0
	}
	return (p.CurrentPage - 1) * p.PageSize
}

// HasPrevious reports whether a previous page exists.
func (p PageState) HasPrevious() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a next page exists.
func (p PageState) HasNext() bool {
	return p.CurrentPage < p.TotalPages()
}

// WithPageSize sets the page size and resets to the first page.
func (p PageState) WithPageSize(n int) PageState {
	p.PageSize = n
	p.CurrentPage = 1
	return p
}

// WithPage moves to page n, clamped into [1, LastPage()].
func (p PageState) WithPage(n int) PageState {
	p.CurrentPage = min(max(n, 1), p.LastPage())
	return p
}

// WithRows replaces the loaded rows.
func (p PageState) WithRows(rows []SensorRecord) PageState {
	p.Rows = rows
	return p
}

// WithTotal replaces the total record count.
func (p PageState) WithTotal(total int) PageState {
	p.TotalRecords = max(total, 0)
	return p
}

// RowsCopy returns a copy of the loaded rows that callers may keep.
func (p PageState) RowsCopy() []SensorRecord {
	out := make([]SensorRecord, len(p.Rows))
	copy(out, p.Rows)
	return out
}

// IsAllowedPageSize reports whether n is positive and listed in options.
// An empty options list allows any positive size.
func IsAllowedPageSize(n int, options []int) bool {
	if n <= 0 {
		return false
	}
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == n {
			return true
		}
	}
	return false
}
