package butterbrot

// Orbit yields the sequence produced by repeatedly applying z <- z^2 + c,
// starting from z = 0. It yields exactly n values and never stops early,
// escape detection is left to the caller.
type Orbit struct {
	c Complex
	z Complex
	n int
}

// NewOrbit creates an orbit seeded at c which yields n points.
func NewOrbit(c Complex, n int) *Orbit {
	return &Orbit{c: c, n: n}
}

// Next returns the next point of the orbit, ok is false once n points were yielded.
func (o *Orbit) Next() (Complex, bool) {
	if o.n <= 0 {
		return Complex{}, false
	}
	o.n--
	o.z = o.z.Squared().Add(o.c)
	return o.z, true
}

// Last consumes the rest of the orbit and returns its final point. For an
// orbit of length 0 it returns the zero value.
func (o *Orbit) Last() Complex {
	for o.n > 0 {
		o.Next()
	}
	return o.z
}
