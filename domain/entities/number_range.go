package entities

// RangeSize is the number of raffle numbers shown per grid page
const RangeSize = 100

// NumberRange is one page of the number grid, inclusive on both ends
type NumberRange struct {
	Index int `json:"index"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// RangeStats counts statuses inside a NumberRange
type RangeStats struct {
	Available int `json:"available"`
	Purchased int `json:"purchased"`
	Selected  int `json:"selected"`
}

// Total returns the number of numbers counted
func (s RangeStats) Total() int {
	return s.Available + s.Purchased + s.Selected
}

// Ranges splits [1, total] into pages of RangeSize; the last page may be shorter
func Ranges(total int) []NumberRange {
	if total <= 0 {
		return nil
	}
	count := (total + RangeSize - 1) / RangeSize
	ranges := make([]NumberRange, 0, count)
	for i := 0; i < count; i++ {
		ranges = append(ranges, NumberRange{
			Index: i,
			Start: i*RangeSize + 1,
			End:   min((i+1)*RangeSize, total),
		})
	}
	return ranges
}

// RangeAt returns the page with the given index, or false when out of bounds
func RangeAt(index, total int) (NumberRange, bool) {
	if index < 0 || total <= 0 || index*RangeSize >= total {
		return NumberRange{}, false
	}
	return NumberRange{
		Index: index,
		Start: index*RangeSize + 1,
		End:   min((index+1)*RangeSize, total),
	}, true
}

// RangeFor returns the page containing n, or false when n is outside [1, total]
func RangeFor(n, total int) (NumberRange, bool) {
	if n < 1 || n > total {
		return NumberRange{}, false
	}
	return RangeAt((n-1)/RangeSize, total)
}

// Size returns how many numbers the range holds
func (r NumberRange) Size() int {
	return r.End - r.Start + 1
}

// Contains reports whether n is inside the range
func (r NumberRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// Numbers lists the numbers of the range in ascending order
func (r NumberRange) Numbers() []int {
	nums := make([]int, 0, r.Size())
	for n := r.Start; n <= r.End; n++ {
		nums = append(nums, n)
	}
	return nums
}
