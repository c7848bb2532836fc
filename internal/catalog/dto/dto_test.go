package dto

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewPagedResult(t *testing.T) {
	page := NewPagedResult([]int{1, 2, 3}, 1, 10, 25)
	if page.TotalPages != 3 || !page.HasNext || page.HasPrevious {
		t.Fatalf("unexpected page %+v", page)
	}

	last := NewPagedResult([]int{21}, 3, 10, 25)
	if last.HasNext || !last.HasPrevious {
		t.Fatalf("unexpected last page %+v", last)
	}

	beyond := NewPagedResult[int](nil, 100, 10, 25)
	if beyond.Items == nil || len(beyond.Items) != 0 || beyond.TotalCount != 25 || beyond.HasNext {
		t.Fatalf("unexpected out-of-range page %+v", beyond)
	}

	empty := NewPagedResult[int](nil, 1, 10, 0)
	if empty.TotalPages != 0 || empty.HasNext || empty.HasPrevious {
		t.Fatalf("unexpected empty page %+v", empty)
	}
}

func TestProperty_TotalPagesIsCeiling(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("totalPages = ceil(total/size)", prop.ForAll(
		func(total int64, size int, page int) bool {
			r := NewPagedResult[int](nil, page, size, total)
			covered := int64(r.TotalPages) * int64(size)
			if covered < total || covered-total >= int64(size) && total > 0 {
				return false
			}
			return r.HasPrevious == (page > 1) && r.HasNext == (page < r.TotalPages)
		},
		gen.Int64Range(0, 10000),
		gen.IntRange(1, 100),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBulkStockResultPartial(t *testing.T) {
	r := BulkStockResult{Updated: []string{"a"}, Failed: map[string]string{"b": "not found"}}
	if !r.Partial() {
		t.Fatal("expected partial")
	}
	if (BulkStockResult{Updated: []string{"a"}}).Partial() {
		t.Fatal("full success is not partial")
	}
}
