package models

import "testing"

func TestParsePageQuery(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"defaults on empty", "", "", 1, DefaultPageLimit},
		{"valid values", "3", "25", 3, 25},
		{"garbage falls back", "abc", "xyz", 1, DefaultPageLimit},
		{"zero and negative fall back", "0", "-5", 1, DefaultPageLimit},
		{"limit capped", "1", "5000", 1, MaxPageLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, limit := ParsePageQuery(tc.page, tc.limit)
			if page != tc.wantPage || limit != tc.wantLimit {
				t.Fatalf("ParsePageQuery(%q, %q) = (%d, %d), want (%d, %d)",
					tc.page, tc.limit, page, limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total     int64
		limit     int
		wantPages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
	}

	for _, tc := range tests {
		p := NewPagination(1, tc.limit, tc.total)
		if p.Pages != tc.wantPages {
			t.Errorf("NewPagination(total=%d, limit=%d).Pages = %d, want %d",
				tc.total, tc.limit, p.Pages, tc.wantPages)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 10, 100)
	if got := p.Offset(); got != 20 {
		t.Fatalf("Offset() = %d, want 20", got)
	}
}
