package butterbrot

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
)

func satAdd(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return s
}

// Combine adds the counters of src onto dst, saturating at the uint64 maximum.
// The width and height words are never touched. overflowed reports whether
// any counter saturated.
func Combine(dst, src Birb) (overflowed bool, err error) {
	if err := dst.Validate(); err != nil {
		return false, err
	}
	if err := src.Validate(); err != nil {
		return false, err
	}
	if dst.Width() != src.Width() || dst.Height() != src.Height() {
		return false, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, dst.Width(), dst.Height(), src.Width(), src.Height())
	}
	d, s := dst.Counts(), src.Counts()
	for i := range d {
		sum, carry := bits.Add64(d[i], s[i], 0)
		if carry != 0 {
			sum, overflowed = math.MaxUint64, true
		}
		d[i] = sum
	}
	return overflowed, nil
}

// CombineAll sums birbs into a new birb without modifying any input.
func CombineAll(birbs ...Birb) (Birb, bool, error) {
	if len(birbs) == 0 {
		return nil, false, fmt.Errorf("%w: nothing to combine", ErrMalformed)
	}
	if err := birbs[0].Validate(); err != nil {
		return nil, false, err
	}
	acc := slices.Clone(birbs[0])
	overflowed := false
	for i, b := range birbs[1:] {
		ov, err := Combine(acc, b)
		if err != nil {
			return nil, false, fmt.Errorf("birb #%d: %w", i+1, err)
		}
		overflowed = overflowed || ov
	}
	return acc, overflowed, nil
}
