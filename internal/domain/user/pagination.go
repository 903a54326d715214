package user

import (
	"fmt"
	"strings"
)

// Sortable fields for paged listings.
const (
	SortByID    = "id"
	SortByName  = "name"
	SortByEmail = "email"
)

// PageRequest selects one zero-based page of users.
type PageRequest struct {
	Page int    // zero-based page index
	Size int    // records per page, > 0
	Sort string // field to order by
	Desc bool   // descending order
}

// ParseSort reads a "field[,asc|desc]" expression into the request.
// An empty expression sorts by id ascending.
func (r *PageRequest) ParseSort(expr string) error {
	r.Sort, r.Desc = SortByID, false
	if expr == "" {
		return nil
	}

	field, dir, _ := strings.Cut(expr, ",")
	switch strings.ToLower(strings.TrimSpace(field)) {
	case SortByID:
		r.Sort = SortByID
	case SortByName:
		r.Sort = SortByName
	case SortByEmail:
		r.Sort = SortByEmail
	default:
		return fmt.Errorf("unsupported sort field %q", field)
	}

	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		r.Desc = true
	default:
		return fmt.Errorf("unsupported sort direction %q", dir)
	}
	return nil
}

// Offset returns the number of records preceding the page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one slice of the users collection plus totals.
type Page struct {
	Content    []User
	Total      int64 // Total number of records
	Number     int   // zero-based page index
	Size       int   // requested page size
	TotalPages int   // number of pages for Size
}

// NewPage creates a Page with calculated total pages.
func NewPage(content []User, total int64, req PageRequest) *Page {
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return &Page{
		Content:    content,
		Total:      total,
		Number:     req.Page,
		Size:       req.Size,
		TotalPages: totalPages,
	}
}

// First reports whether this is the first page.
func (p *Page) First() bool { return p.Number == 0 }

// Last reports whether no page follows this one.
func (p *Page) Last() bool { return p.Number+1 >= p.TotalPages }
