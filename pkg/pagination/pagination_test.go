package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		in        OffsetRequest
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", in: OffsetRequest{}, wantPage: 1, wantLimit: PageDefaultSize},
		{name: "negative", in: OffsetRequest{Page: -3, Limit: -1}, wantPage: 1, wantLimit: PageDefaultSize},
		{name: "clamped", in: OffsetRequest{Page: 2, Limit: 5000}, wantPage: 2, wantLimit: PageMaxSize},
		{name: "kept", in: OffsetRequest{Page: 3, Limit: 25}, wantPage: 3, wantLimit: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.in
			assert.NoError(t, r.Validate())
			assert.Equal(t, tt.wantPage, r.Page)
			assert.Equal(t, tt.wantLimit, r.Limit)
		})
	}
}

func TestOffsetRequest_ValidatePageOutOfRange(t *testing.T) {
	r := OffsetRequest{Page: math.MaxInt, Limit: PageMaxSize}

	err := r.Validate()

	assert.ErrorIs(t, err, ErrPageOutOfRange)
	assert.Equal(t, PageMax, r.Page)
	assert.GreaterOrEqual(t, r.Offset(), 0)
}

func TestOffsetRequest_Offset(t *testing.T) {
	r := OffsetRequest{Page: 3, Limit: 20}

	assert.Equal(t, 40, r.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 34, TotalPages(100, 3))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewOffsetResult(t *testing.T) {
	res := NewOffsetResult[string](nil, 21, 2, 10)

	assert.NotNil(t, res.Items)
	assert.Equal(t, int64(21), res.Meta.Total)
	assert.Equal(t, 3, res.Meta.TotalPages)
	assert.True(t, res.HasMore())
}
