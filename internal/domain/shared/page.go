package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest carries pagination and sort parameters through the query paths.
// Page numbering is zero-based.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

// Normalize clamps the request to sane bounds
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized request
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}
