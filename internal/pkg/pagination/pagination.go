package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// DefaultSize is the default number of items per page
const DefaultSize = 7

// MaxSize is the maximum number of items per page
const MaxSize = 1000

// Params represents zero-based pagination parameters
type Params struct {
	Page   int `json:"page"`
	Size   int `json:"size"`
	Offset int `json:"-"`
}

// GetParams extracts zero-based page and size query parameters
func GetParams(c *fiber.Ctx) Params {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", strconv.Itoa(DefaultSize)))
	return Normalize(page, size)
}

// Normalize clamps page and size into valid ranges
func Normalize(page, size int) Params {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Params{Page: page, Size: size, Offset: page * size}
}

// Page is the canonical paginated response shape. PageNumber is zero-based.
type Page[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
	First         bool  `json:"first"`
}

// SpringPage is the page shape used by the loans endpoint
type SpringPage[T any] struct {
	Content          []T   `json:"content"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Last             bool  `json:"last"`
	First            bool  `json:"first"`
	NumberOfElements int   `json:"numberOfElements"`
	Empty            bool  `json:"empty"`
}

// ToPage converts the spring shape into the canonical one.
// Numbering stays zero-based; first and last are carried as reported.
func (s SpringPage[T]) ToPage() Page[T] {
	content := s.Content
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		PageNumber:    s.Number,
		PageSize:      s.Size,
		TotalElements: s.TotalElements,
		TotalPages:    s.TotalPages,
		Last:          s.Last,
		First:         s.First,
	}
}

// TotalPages calculates the number of pages for total items
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	pages := int(total) / size
	if int(total)%size > 0 {
		pages++
	}
	return pages
}

// Slice cuts one page out of all items
func Slice[T any](all []T, p Params) Page[T] {
	total := int64(len(all))
	totalPages := TotalPages(total, p.Size)

	start := p.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}

	content := make([]T, end-start)
	copy(content, all[start:end])

	return Page[T]{
		Content:       content,
		PageNumber:    p.Page,
		PageSize:      p.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         p.Page == 0,
		Last:          totalPages == 0 || p.Page == totalPages-1,
	}
}

// Spring converts a canonical page into the spring shape
func Spring[T any](p Page[T]) SpringPage[T] {
	return SpringPage[T]{
		Content:          p.Content,
		Number:           p.PageNumber,
		Size:             p.PageSize,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		Last:             p.Last,
		First:            p.First,
		NumberOfElements: len(p.Content),
		Empty:            len(p.Content) == 0,
	}
}
