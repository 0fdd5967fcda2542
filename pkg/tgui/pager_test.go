package tgui

import "testing"

func TestPaginateSliceBounds(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	sub, page, hasPrev, hasNext := PaginateSlice(items, 0, 1)
	if len(sub) != 1 || sub[0] != "a" {
		t.Fatalf("page 0: got %v", sub)
	}
	if page != 0 || hasPrev || !hasNext {
		t.Fatalf("page 0: page=%d hasPrev=%v hasNext=%v", page, hasPrev, hasNext)
	}

	sub, _, hasPrev, hasNext = PaginateSlice(items, 2, 1)
	if len(sub) != 1 || sub[0] != "c" {
		t.Fatalf("page 2: got %v", sub)
	}
	if !hasPrev || !hasNext {
		t.Fatalf("page 2: hasPrev=%v hasNext=%v", hasPrev, hasNext)
	}

	sub, _, hasPrev, hasNext = PaginateSlice(items, 4, 1)
	if len(sub) != 1 || sub[0] != "e" {
		t.Fatalf("last page: got %v", sub)
	}
	if !hasPrev || hasNext {
		t.Fatalf("last page: hasPrev=%v hasNext=%v", hasPrev, hasNext)
	}

	sub, _, _, hasNext = PaginateSlice(items, 99, 1)
	if len(sub) != 0 || hasNext {
		t.Fatalf("out of range page should be empty, got %v hasNext=%v", sub, hasNext)
	}

	sub, page, hasPrev, _ = PaginateSlice(items, -3, 1)
	if page != 0 || hasPrev || len(sub) != 1 || sub[0] != "a" {
		t.Fatalf("negative page should clamp to 0, got page=%d sub=%v", page, sub)
	}
}

func TestPaginateSliceSize(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	sub, _, _, hasNext := PaginateSlice(items, 1, 2)
	if len(sub) != 2 || sub[0] != 3 || sub[1] != 4 {
		t.Fatalf("size 2 page 1: got %v", sub)
	}
	if !hasNext {
		t.Fatalf("size 2 page 1: expected hasNext")
	}

	sub, _, _, hasNext = PaginateSlice(items, 2, 2)
	if len(sub) != 1 || sub[0] != 5 || hasNext {
		t.Fatalf("size 2 page 2: got %v hasNext=%v", sub, hasNext)
	}
}

func TestPageLabel(t *testing.T) {
	if got := PageLabel(0, 10); got != "1/10" {
		t.Fatalf("PageLabel(0,10)=%q", got)
	}
	if got := PageLabel(9, 10); got != "10/10" {
		t.Fatalf("PageLabel(9,10)=%q", got)
	}
	if got := PageLabel(15, 10); got != "10/10" {
		t.Fatalf("PageLabel clamps high: %q", got)
	}
	if got := PageLabel(-1, 10); got != "1/10" {
		t.Fatalf("PageLabel clamps low: %q", got)
	}
	if got := PageLabel(0, 0); got != "1/1" {
		t.Fatalf("PageLabel empty total: %q", got)
	}
}
