package butterbrot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexArithmetic(t *testing.T) {
	a, b := Complex{1, 2}, Complex{3, -1}
	assert.Equal(t, Complex{4, 1}, a.Add(b))
	assert.Equal(t, Complex{-2, 3}, a.Sub(b))
	assert.Equal(t, Complex{5, 5}, a.Mul(b))
	assert.Equal(t, Complex{-3, 4}, a.Squared())
	assert.InDelta(t, 5.0, Complex{3, 4}.Modulus(), 1e-12)
}

func TestCornersNormalizes(t *testing.T) {
	lower, upper := corners(Complex{1, -1}, Complex{-1, 1})
	assert.Equal(t, Complex{-1, -1}, lower)
	assert.Equal(t, Complex{1, 1}, upper)
}

func TestInRectHalfOpen(t *testing.T) {
	lower, upper := Complex{-1, -1}, Complex{1, 1}
	assert.True(t, inRect(lower, lower, upper))
	assert.True(t, inRect(Complex{0.999, 0.999}, lower, upper))
	assert.False(t, inRect(upper, lower, upper))
	assert.False(t, inRect(Complex{1, 0}, lower, upper))
	assert.False(t, inRect(Complex{math.NaN(), 0}, lower, upper))
}

func TestEscaped(t *testing.T) {
	assert.False(t, escaped(Complex{1, 0}))
	assert.True(t, escaped(Complex{2, 0}))
	assert.True(t, escaped(Complex{math.Inf(1), 0}))
	assert.True(t, escaped(Complex{math.NaN(), math.NaN()}))
}
