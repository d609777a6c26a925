// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default page sizes per list kind, matching the admin screens.
const (
	MembersPageSize    = 20
	NewFriendsPageSize = 15
	GroupsPageSize     = 10
	ActivityPageSize   = 50
)

// Page holds a parsed 1-based page request.
type Page struct {
	Number  int
	PerPage int
}

// Parse reads the "page" query parameter (1-based, defaults to 1) with the
// given page size. Invalid or out-of-range values fall back to page 1.
func Parse(r *http.Request, perPage int) Page {
	p := Page{Number: 1, PerPage: perPage}
	if s := query.Get(r, "page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Number = n
		}
	}
	return p
}

// Skip returns the number of documents to skip.
func (p Page) Skip() int64 { return int64(p.Number-1) * int64(p.PerPage) }

// Limit returns the page size as int64 for Mongo Find options.
func (p Page) Limit() int64 { return int64(p.PerPage) }

// FindOptions returns Find options with skip and limit applied.
func (p Page) FindOptions() *options.FindOptions {
	return options.Find().SetSkip(p.Skip()).SetLimit(p.Limit())
}

// Pages returns the total page count for a result-set size, at least 1.
func (p Page) Pages(total int64) int {
	if total <= 0 {
		return 1
	}
	n := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if n < 1 {
		n = 1
	}
	return n
}

// Meta is the pagination block included in list responses.
type Meta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

// MetaFor builds the response metadata for a page over total rows.
func MetaFor(p Page, total int64) Meta {
	return Meta{Page: p.Number, PerPage: p.PerPage, Pages: p.Pages(total), Total: total}
}
