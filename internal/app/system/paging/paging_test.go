package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url  string
		want int
	}{
		{"/members", 1},
		{"/members?page=1", 1},
		{"/members?page=3", 3},
		{"/members?page=0", 1},
		{"/members?page=-2", 1},
		{"/members?page=abc", 1},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			p := Parse(r, MembersPageSize)
			if p.Number != tt.want {
				t.Errorf("Parse(%q).Number = %d, want %d", tt.url, p.Number, tt.want)
			}
			if p.PerPage != MembersPageSize {
				t.Errorf("PerPage = %d, want %d", p.PerPage, MembersPageSize)
			}
		})
	}
}

func TestSkipLimit(t *testing.T) {
	p := Page{Number: 3, PerPage: 20}
	if p.Skip() != 40 {
		t.Errorf("Skip() = %d, want 40", p.Skip())
	}
	if p.Limit() != 20 {
		t.Errorf("Limit() = %d, want 20", p.Limit())
	}
}

func TestPages(t *testing.T) {
	p := Page{Number: 1, PerPage: 20}
	tests := []struct {
		total int64
		want  int
	}{
		{0, 1},
		{1, 1},
		{20, 1},
		{21, 2},
		{200, 10},
	}
	for _, tt := range tests {
		if got := p.Pages(tt.total); got != tt.want {
			t.Errorf("Pages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestMetaFor(t *testing.T) {
	m := MetaFor(Page{Number: 2, PerPage: 15}, 31)
	if m.Page != 2 || m.PerPage != 15 || m.Pages != 3 || m.Total != 31 {
		t.Errorf("unexpected meta: %+v", m)
	}
}
