package pagination

type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// OffsetResult represents traditional offset-based pagination
type OffsetResult[T any] struct {
	Items []T `json:"items"`
	Meta  Meta `json:"meta"`
}

// NewOffsetResult creates a new offset-based result.
// Items is never serialized as null.
func NewOffsetResult[T any](items []T, total int64, page int, limit int) *OffsetResult[T] {
	if items == nil {
		items = make([]T, 0)
	}

	return &OffsetResult[T]{
		Items: items,
		Meta: Meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: TotalPages(total, limit),
		},
	}
}

// TotalPages returns ceil(total / limit), or 0 when limit is not positive.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// HasMore reports whether pages exist after the current one.
func (r *OffsetResult[T]) HasMore() bool {
	return r.Meta.Page < r.Meta.TotalPages
}
