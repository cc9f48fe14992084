package pagination

import "testing"

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginateLastPartialPage(t *testing.T) {
	page := Paginate(ints(23), 3, 10)

	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages)
	}
	if page.StartIndex != 20 || page.EndIndex != 30 {
		t.Fatalf("expected indices 20/30, got %d/%d", page.StartIndex, page.EndIndex)
	}
	if len(page.Slice) != 3 || page.Slice[0] != 21 || page.Slice[2] != 23 {
		t.Fatalf("unexpected slice %v", page.Slice)
	}
}

func TestPaginateClampsNavigation(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		wantHead int
	}{
		{name: "below one", page: -4, wantHead: 1},
		{name: "zero", page: 0, wantHead: 1},
		{name: "past end", page: 99, wantHead: 21},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(ints(23), tt.page, 10)
			if len(page.Slice) == 0 || page.Slice[0] != tt.wantHead {
				t.Fatalf("expected first item %d, got %v", tt.wantHead, page.Slice)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate([]int{}, 1, 10)
	if page.TotalPages != 0 {
		t.Fatalf("expected 0 pages, got %d", page.TotalPages)
	}
	if len(page.Slice) != 0 {
		t.Fatalf("expected empty slice, got %v", page.Slice)
	}
}

func TestPaginateDefaultPerPage(t *testing.T) {
	page := Paginate(ints(12), 1, 0)
	if len(page.Slice) != DefaultPerPage {
		t.Fatalf("expected default page size %d, got %d", DefaultPerPage, len(page.Slice))
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages)
	}
}

func TestClampPage(t *testing.T) {
	if got := ClampPage(5, 3); got != 3 {
		t.Fatalf("expected clamp to 3, got %d", got)
	}
	if got := ClampPage(0, 3); got != 1 {
		t.Fatalf("expected clamp to 1, got %d", got)
	}
	if got := ClampPage(2, 0); got != 1 {
		t.Fatalf("expected page 1 with no pages, got %d", got)
	}
}
