package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int
		wantCount int
		wantLast  NumberRange
	}{
		{name: "exact multiple", total: 1000, wantCount: 10, wantLast: NumberRange{Index: 9, Start: 901, End: 1000}},
		{name: "partial last page", total: 250, wantCount: 3, wantLast: NumberRange{Index: 2, Start: 201, End: 250}},
		{name: "single short page", total: 7, wantCount: 1, wantLast: NumberRange{Index: 0, Start: 1, End: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ranges := Ranges(tt.total)
			assert.Len(t, ranges, tt.wantCount)
			assert.Equal(t, tt.wantLast, ranges[len(ranges)-1])
			assert.Equal(t, 1, ranges[0].Start)
		})
	}

	assert.Nil(t, Ranges(0))
}

func TestRangeFor(t *testing.T) {
	t.Parallel()

	r, ok := RangeFor(100, 250)
	assert.True(t, ok)
	assert.Equal(t, NumberRange{Index: 0, Start: 1, End: 100}, r)

	r, ok = RangeFor(101, 250)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Index)

	_, ok = RangeFor(0, 250)
	assert.False(t, ok)
	_, ok = RangeFor(251, 250)
	assert.False(t, ok)

	_, ok = RangeAt(3, 250)
	assert.False(t, ok)
}

func TestNumberRange_Numbers(t *testing.T) {
	t.Parallel()

	r := NumberRange{Start: 201, End: 205}
	assert.Equal(t, []int{201, 202, 203, 204, 205}, r.Numbers())
	assert.Equal(t, 5, r.Size())
	assert.True(t, r.Contains(203))
	assert.False(t, r.Contains(206))
}

func TestFormatTicketNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "007", FormatTicketNumber(7))
	assert.Equal(t, "045", FormatTicketNumber(45))
	assert.Equal(t, "100", FormatTicketNumber(100))
	assert.Equal(t, "1000", FormatTicketNumber(1000))
}
