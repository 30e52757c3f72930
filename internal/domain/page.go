package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPageNumber keeps Offset far from integer overflow. Any page past
	// the data is empty anyway.
	MaxPageNumber = 1_000_000
)

// Page is a normalized page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps number and limit into the accepted range.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}

	if number > MaxPageNumber {
		number = MaxPageNumber
	}

	if limit < 1 {
		limit = DefaultPageLimit
	}

	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return Page{Number: number, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages returns how many pages total rows span.
func (p Page) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}

	return (total + p.Limit - 1) / p.Limit
}

// Window returns the [start, end) bounds of the page within n items.
func (p Page) Window(n int) (int, int) {
	start := min(p.Offset(), n)
	end := min(start+p.Limit, n)

	return start, end
}
