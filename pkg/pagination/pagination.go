package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultSize is the page size used when the request does not specify one.
	DefaultSize = 10
	// MaxSize caps the page size a caller may request.
	MaxSize = 100
)

// Params holds pagination parameters extracted from query strings.
// Pages are zero-indexed.
type Params struct {
	Page   int `json:"page"`
	Size   int `json:"size"`
	Offset int `json:"-"`
}

// DefaultParams returns the default pagination parameters (first page).
func DefaultParams() Params {
	return Params{
		Page:   0,
		Size:   DefaultSize,
		Offset: 0,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Out-of-range values fall back to defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v >= 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= MaxSize {
			p.Size = v
		}
	}

	p.Offset = p.Page * p.Size
	return p
}

// TotalPages returns ceil(totalCount / size) for the given page size.
func TotalPages(totalCount, size int) int {
	if size <= 0 {
		return 0
	}
	pages := totalCount / size
	if totalCount%size > 0 {
		pages++
	}
	return pages
}
