package butterbrot

import (
	"fmt"
	"math"
	"math/bits"
	"slices"
	"sync"
)

// Birb is the flat counter layout shared by the histogram and the .birb
// format: [width, height, count(0,0), count(1,0), ..., count(width-1,height-1)].
type Birb []uint64

// NewBirb allocates a zeroed birb of the given size.
func NewBirb(width, height int) Birb {
	if width <= 0 || height <= 0 {
		panic("birb dimensions must be positive")
	}
	b := make(Birb, headerWords+width*height)
	b[0], b[1] = uint64(width), uint64(height)
	return b
}

func (b Birb) Width() uint64 {
	if len(b) < headerWords {
		return 0
	}
	return b[0]
}

func (b Birb) Height() uint64 {
	if len(b) < headerWords {
		return 0
	}
	return b[1]
}

// Counts returns the pixel counters, row-major.
func (b Birb) Counts() []uint64 {
	if len(b) < headerWords {
		return nil
	}
	return b[headerWords:]
}

// Validate checks len(b) == width*height + 2.
func (b Birb) Validate() error {
	if len(b) < headerWords {
		return fmt.Errorf("%w: %d words, need at least %d", ErrMalformed, len(b), headerWords)
	}
	hi, cells := bits.Mul64(b[0], b[1])
	if hi != 0 || cells > math.MaxUint64-headerWords || cells+headerWords != uint64(len(b)) {
		return fmt.Errorf("%w: width=%d height=%d does not match %d words", ErrMalformed, b[0], b[1], len(b))
	}
	return nil
}

// Total returns the saturated sum of all counters.
func (b Birb) Total() uint64 {
	var sum uint64
	for _, n := range b.Counts() {
		sum = satAdd(sum, n)
	}
	return sum
}

// Max returns the largest counter.
func (b Birb) Max() uint64 {
	var m uint64
	for _, n := range b.Counts() {
		m = max(m, n)
	}
	return m
}

// NonZero returns how many counters are positive.
func (b Birb) NonZero() int {
	nz := 0
	for _, n := range b.Counts() {
		if n > 0 {
			nz++
		}
	}
	return nz
}

// Frame maps points of the observed rectangle onto pixel indices of a birb.
type Frame struct {
	Lower, Upper  Complex // component-wise minima and maxima
	Width, Height int
	StepR, StepI  Real // pixel size along the real and the imaginary axis
}

// NewFrame normalizes the corners c1, c2 and precomputes the pixel steps.
func NewFrame(c1, c2 Complex, width, height int) (Frame, error) {
	if width <= 0 || height <= 0 {
		return Frame{}, fmt.Errorf("%w: frame resolution must be positive, got %dx%d", ErrInvalidConfig, width, height)
	}
	if !isFinite(c1.R) || !isFinite(c1.I) || !isFinite(c2.R) || !isFinite(c2.I) {
		return Frame{}, fmt.Errorf("%w: corners must be finite: %+v %+v", ErrInvalidConfig, c1, c2)
	}
	lower, upper := corners(c1, c2)
	if lower.R == upper.R || lower.I == upper.I {
		return Frame{}, fmt.Errorf("%w: empty frame %+v - %+v", ErrInvalidConfig, lower, upper)
	}
	f := Frame{
		Lower:  lower,
		Upper:  upper,
		Width:  width,
		Height: height,
		StepR:  (upper.R - lower.R) / Real(width),
		StepI:  (upper.I - lower.I) / Real(height),
	}
	DebugLogOnce("Frame %+v - %+v, resolution=%dx%d, step=(%g, %g)", lower, upper, width, height, f.StepR, f.StepI)
	return f, nil
}

// Contains tells whether c lies inside [Lower, Upper).
func (f Frame) Contains(c Complex) bool { return inRect(c, f.Lower, f.Upper) }

// Index returns the flat birb index of the pixel holding c.
func (f Frame) Index(c Complex) (int, bool) {
	if !isFinite(c.R) || !isFinite(c.I) {
		return 0, false
	}
	col := int(math.Floor((c.R - f.Lower.R) / f.StepR))
	row := int(math.Floor((c.I - f.Lower.I) / f.StepI))
	// rounding may push a point just below the upper edge onto the next pixel
	if col == f.Width && c.R < f.Upper.R {
		col--
	}
	if row == f.Height && c.I < f.Upper.I {
		row--
	}
	if col < 0 || col >= f.Width || row < 0 || row >= f.Height {
		return 0, false
	}
	return headerWords + col + row*f.Width, true
}

// writeBack increments the counter of every point of trace in b.
func (f Frame) writeBack(b Birb, trace []Complex) error {
	for _, c := range trace {
		idx, ok := f.Index(c)
		if !ok || idx >= len(b) {
			return fmt.Errorf("%w: %+v in frame %+v - %+v (%dx%d)", ErrPixelOutOfRange, c, f.Lower, f.Upper, f.Width, f.Height)
		}
		b[idx]++
	}
	return nil
}

// Histogram is the birb shared by all workers of a run. Every access goes
// through its lock. A panic while the lock is held poisons the histogram and
// every later access fails with ErrPoisoned.
type Histogram struct {
	mu       sync.Mutex
	poisoned bool
	birb     Birb
}

// NewHistogram allocates a zero-initialized shared histogram.
func NewHistogram(width, height int) *Histogram {
	return &Histogram{birb: NewBirb(width, height)}
}

// Update runs fn with exclusive access to the counters.
func (h *Histogram) Update(fn func(b Birb) error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.poisoned {
		return ErrPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			h.poisoned = true
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()
	return fn(h.birb)
}

// Snapshot returns a copy of the counters.
func (h *Histogram) Snapshot() (Birb, error) {
	var out Birb
	err := h.Update(func(b Birb) error {
		out = slices.Clone(b)
		return nil
	})
	return out, err
}

// Poisoned tells whether a holder of the lock panicked.
func (h *Histogram) Poisoned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.poisoned
}
