package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate_Scenario(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	var sizes []int
	for p := 1; p <= TotalPages(len(items), 10); p++ {
		page := Paginate(items, p, 10)
		assert.Equal(t, 3, page.TotalPages)
		sizes = append(sizes, len(page.Items))
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
}

func TestPaginate_Completeness(t *testing.T) {
	for n := 1; n <= 23; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for size := 1; size <= 12; size++ {
			var joined []int
			total := TotalPages(n, size)
			for p := 1; p <= total; p++ {
				joined = append(joined, Paginate(items, p, size).Items...)
			}
			assert.Equal(t, items, joined, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginate_EdgeCases(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))

	empty := Paginate([]int{}, 3, 10)
	assert.Equal(t, 1, empty.Page)
	assert.Empty(t, empty.Items)

	clamped := Paginate([]int{1, 2, 3}, 9, 2)
	assert.Equal(t, 2, clamped.Page)
	assert.Equal(t, []int{3}, clamped.Items)
}
