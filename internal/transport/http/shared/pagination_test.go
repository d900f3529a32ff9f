package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", url: "/sales", wantLimit: 50, wantOffset: 0},
		{name: "explicit limit and offset", url: "/sales?limit=10&offset=30", wantLimit: 10, wantOffset: 30},
		{name: "limit capped", url: "/sales?limit=9999", wantLimit: 200, wantOffset: 0},
		{name: "garbage ignored", url: "/sales?limit=abc&offset=-5", wantLimit: 50, wantOffset: 0},
		{name: "page translated", url: "/sales?page=3&limit=20", wantLimit: 20, wantOffset: 40},
		{name: "first page is zero offset", url: "/sales?page=1", wantLimit: 50, wantOffset: 0},
		{name: "offset wins over page", url: "/sales?page=3&offset=5", wantLimit: 50, wantOffset: 5},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			p := ParsePagination(r, 50, 200)
			if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want limit=%d offset=%d", p.Limit, p.Offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}
