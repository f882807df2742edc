package pagination

import (
	"errors"
	"math"
)

// PageMax is the largest page whose offset cannot overflow at the maximum page size.
const PageMax = math.MaxInt / PageMaxSize

var ErrPageOutOfRange = errors.New("page out of range")

// OffsetRequest represents an offset-based pagination request
type OffsetRequest struct {
	Page  int `json:"page" query:"page" validate:"min=1"`
	Limit int `json:"limit" query:"limit" validate:"min=1,max=100"`
}

// Validate validates and normalizes offset pagination parameters. A page past
// PageMax is clamped to it and reported with ErrPageOutOfRange.
func (r *OffsetRequest) Validate() error {
	var err error
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Page > PageMax {
		r.Page = PageMax
		err = ErrPageOutOfRange
	}
	if r.Limit <= 0 {
		r.Limit = PageDefaultSize
	}
	if r.Limit > PageMaxSize {
		r.Limit = PageMaxSize
	}
	return err
}

// Offset returns the number of rows to skip. Call Validate first.
func (r OffsetRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}
