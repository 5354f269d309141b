package butterbrot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(o *Orbit) []Complex {
	var out []Complex
	for z, ok := o.Next(); ok; z, ok = o.Next() {
		out = append(out, z)
	}
	return out
}

func TestOrbitYieldsExactlyN(t *testing.T) {
	o := NewOrbit(Complex{1, 0}, 3)
	assert.Equal(t, []Complex{{1, 0}, {2, 0}, {5, 0}}, collect(o))
	_, ok := o.Next()
	assert.False(t, ok)
}

func TestOrbitDoesNotStopAtEscape(t *testing.T) {
	// diverges after the first step, still yields every point
	tr := collect(NewOrbit(Complex{10, 10}, 8))
	require.Len(t, tr, 8)
	assert.True(t, escaped(tr[len(tr)-1]))
}

func TestOrbitLast(t *testing.T) {
	assert.Equal(t, Complex{5, 0}, NewOrbit(Complex{1, 0}, 3).Last())
	assert.Equal(t, Complex{}, NewOrbit(Complex{1, 0}, 0).Last())
	// -1 cycles between -1 and 0 forever
	assert.False(t, escaped(NewOrbit(Complex{-1, 0}, 1000).Last()))
}
