package butterbrot

import "math"

// Complex is a point of the complex plane, R is the real part and I the imaginary part.
type Complex struct {
	R Real `json:"r" yaml:"r"`
	I Real `json:"i" yaml:"i"`
}

// Complex functions
func (a Complex) Add(b Complex) Complex { return Complex{a.R + b.R, a.I + b.I} }
func (a Complex) Sub(b Complex) Complex { return Complex{a.R - b.R, a.I - b.I} }

// Mul returns the complex product a*b.
func (a Complex) Mul(b Complex) Complex {
	return Complex{a.R*b.R - a.I*b.I, a.R*b.I + a.I*b.R}
}

// Squared returns a*a.
func (a Complex) Squared() Complex { return a.Mul(a) }

// Modulus returns the Euclidean length |a|.
func (a Complex) Modulus() Real { return math.Hypot(a.R, a.I) }

// corners returns the lower-left (component-wise minima) and upper-right
// (component-wise maxima) corners of the rectangle spanned by a and b.
func corners(a, b Complex) (lower, upper Complex) {
	lower = Complex{math.Min(a.R, b.R), math.Min(a.I, b.I)}
	upper = Complex{math.Max(a.R, b.R), math.Max(a.I, b.I)}
	return lower, upper
}

// inRect tells whether c lies in [lower.R, upper.R) x [lower.I, upper.I).
// NaN never does.
func inRect(c, lower, upper Complex) bool {
	return lower.R <= c.R && c.R < upper.R && lower.I <= c.I && c.I < upper.I
}
