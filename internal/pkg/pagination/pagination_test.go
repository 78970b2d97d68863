package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 0, Size: DefaultSize, Offset: 0}, Normalize(-3, 0))
	assert.Equal(t, Params{Page: 2, Size: 5, Offset: 10}, Normalize(2, 5))
	assert.Equal(t, MaxSize, Normalize(0, MaxSize+1).Size)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 5))
	assert.Equal(t, 1, TotalPages(5, 5))
	assert.Equal(t, 3, TotalPages(12, 5))
	assert.Equal(t, 0, TotalPages(12, 0))
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5, 6, 7}

	p := Slice(all, Normalize(1, 3))
	assert.Equal(t, []int{4, 5, 6}, p.Content)
	assert.Equal(t, 1, p.PageNumber)
	assert.Equal(t, int64(7), p.TotalElements)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.First)
	assert.False(t, p.Last)

	last := Slice(all, Normalize(2, 3))
	assert.Equal(t, []int{7}, last.Content)
	assert.True(t, last.Last)

	beyond := Slice(all, Normalize(9, 3))
	assert.Empty(t, beyond.Content)
}

func TestSpringPage_ToPage(t *testing.T) {
	s := SpringPage[string]{
		Content:       []string{"a", "b"},
		Number:        0,
		Size:          10,
		TotalElements: 2,
		TotalPages:    1,
		First:         true,
		Last:          true,
	}

	p := s.ToPage()
	assert.Equal(t, []string{"a", "b"}, p.Content)
	assert.Equal(t, 0, p.PageNumber)
	assert.Equal(t, 10, p.PageSize)
	assert.True(t, p.First)
	assert.True(t, p.Last)

	empty := SpringPage[string]{Empty: true}.ToPage()
	assert.NotNil(t, empty.Content)
}

func TestSpring_RoundTripsFlags(t *testing.T) {
	p := Slice([]int{1, 2, 3}, Normalize(0, 2))
	s := Spring(p)
	assert.Equal(t, 2, s.NumberOfElements)
	assert.False(t, s.Empty)
	assert.Equal(t, p, s.ToPage())
}

func TestNewWindow(t *testing.T) {
	w := NewWindow(0, 3, 5, 12)
	assert.Equal(t, int64(1), w.StartItem)
	assert.Equal(t, int64(5), w.EndItem)
	assert.False(t, w.HasPrev)
	assert.True(t, w.HasNext)
	assert.True(t, w.Visible())

	last := NewWindow(2, 3, 5, 12)
	assert.Equal(t, int64(11), last.StartItem)
	assert.Equal(t, int64(12), last.EndItem)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)

	assert.False(t, NewWindow(0, 1, 5, 3).Visible())
}

func TestNewWindow_PastLastPage(t *testing.T) {
	w := NewWindow(50, 2, 5, 12)
	assert.Zero(t, w.StartItem)
	assert.Zero(t, w.EndItem)
	assert.True(t, w.HasPrev)
	assert.False(t, w.HasNext)

	empty := NewWindow(0, 0, 5, 0)
	assert.Zero(t, empty.StartItem)
	assert.Zero(t, empty.EndItem)
}

func TestVisiblePages(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		totalPages int
		want       []int
	}{
		{"none", 0, 0, nil},
		{"single", 0, 1, []int{1}},
		{"short", 2, 5, []int{1, 2, 3, 4, 5}},
		{"start", 0, 10, []int{1, 2, 3, Ellipsis, 10}},
		{"near start", 3, 10, []int{1, 2, 3, 4, 5, 6, Ellipsis, 10}},
		{"middle", 5, 10, []int{1, Ellipsis, 4, 5, 6, 7, 8, Ellipsis, 10}},
		{"end", 9, 10, []int{1, Ellipsis, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, visiblePages(tt.current, tt.totalPages))
		})
	}
}
