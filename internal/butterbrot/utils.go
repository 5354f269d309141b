package butterbrot

import (
	"math"
)

func isFinite(x Real) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// escaped tells whether the final point of a capped orbit left the radius 2
// disc. Overflowed orbits end in Inf or NaN and count as escaped.
func escaped(z Complex) bool {
	return !(z.Modulus() < EscapeRadius)
}
