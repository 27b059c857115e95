package shared

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ListParams are the common list query parameters: page, page_size, ordering and search.
type ListParams struct {
	Page     int
	PageSize int
	Ordering []string
	Search   string
}

// Offset returns the row offset of the requested page.
func (p ListParams) Offset() uint64 {
	return uint64((p.Page - 1) * p.PageSize)
}

// ParseListParams reads list parameters from the request query.
func ParseListParams(r *http.Request) ListParams {
	q := r.URL.Query()
	p := ListParams{Page: 1, PageSize: defaultPageSize, Search: strings.TrimSpace(q.Get("search"))}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		p.PageSize = min(v, maxPageSize)
	}
	for _, field := range strings.Split(q.Get("ordering"), ",") {
		if field = strings.TrimSpace(field); field != "" {
			p.Ordering = append(p.Ordering, field)
		}
	}
	return p
}

// OrderBy maps requested ordering fields onto SQL columns. Unknown fields are
// dropped; a leading "-" sorts descending.
func (p ListParams) OrderBy(columns map[string]string, fallback ...string) []string {
	var out []string
	for _, field := range p.Ordering {
		desc := strings.HasPrefix(field, "-")
		col, ok := columns[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if desc {
			col += " DESC"
		}
		out = append(out, col)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Page is a paginated list response.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds a page with next/previous links derived from the request URL.
func NewPage[T any](r *http.Request, params ListParams, total int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	meta := NewPagination(params.Page, params.PageSize, total)
	page := Page[T]{Count: total, Results: results}
	if meta.Page < meta.TotalPages {
		page.Next = pageLink(r, meta.Page+1)
	}
	if meta.Page > 1 {
		page.Previous = pageLink(r, meta.Page-1)
	}
	return page
}

func pageLink(r *http.Request, page int) *string {
	u := url.URL{Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
