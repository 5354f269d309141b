package butterbrot

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// SamplerConfig holds the construction parameters of a Sampler.
type SamplerConfig struct {
	Samples     int     // post warm-up budget
	Warmup      int     // transitions computed and discarded on construction
	Iterations  int     // length of every orbit
	Corner1     Complex // any corner of the observed rectangle
	Corner2     Complex // the diagonally opposite corner
	Width       int     // pixel columns, used to derive the mutation radii
	Height      int     // pixel rows, used to derive the mutation radii
	MaxAttempts int     // cap on consecutive failed draws, 0 means unbounded
}

// SamplerStats counts what happened to the proposals of a Sampler.
type SamplerStats struct {
	Accepted int64 // accepted transitions, warm-up included
	Rejected int64 // escaping candidates refused by the acceptance test
	Invalid  int64 // candidates that did not escape within the iteration cap
}

// Sampler is a Metropolis-Hastings random walk over seed points outside the
// Mandelbrot set. Every accepted transition yields the part of the seed's
// orbit that falls inside the observed rectangle.
//
// A Sampler is not safe for concurrent use, each worker owns one.
type Sampler struct {
	sample      Complex // previous accepted seed
	length      int     // trace length of sample
	remaining   int
	iterations  int
	maxAttempts int
	frame       Frame
	small       [2]Real // per axis mutation radii
	large       [2]Real
	rng         *rand.Rand
	buf         []Complex // scratch trace of the current candidate
	stats       SamplerStats
	err         error
}

// NewSampler draws an initial escaping seed, then runs cfg.Warmup transitions
// whose traces are discarded.
func NewSampler(cfg SamplerConfig, rng *rand.Rand) (*Sampler, error) {
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be > 0, got %d", ErrInvalidConfig, cfg.Iterations)
	}
	if cfg.Samples < 0 || cfg.Warmup < 0 || cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: negative samples=%d warmup=%d maxAttempts=%d", ErrInvalidConfig, cfg.Samples, cfg.Warmup, cfg.MaxAttempts)
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	frame, err := NewFrame(cfg.Corner1, cfg.Corner2, width, height)
	if err != nil {
		return nil, err
	}
	s := &Sampler{
		remaining:   cfg.Samples + cfg.Warmup,
		iterations:  cfg.Iterations,
		maxAttempts: cfg.MaxAttempts,
		frame:       frame,
		small:       [2]Real{SmallStep * frame.StepR, SmallStep * frame.StepI},
		large:       [2]Real{LargeStep * frame.StepR, LargeStep * frame.StepI},
		rng:         rng,
		buf:         make([]Complex, 0, cfg.Iterations),
	}
	s.sample, err = s.randomSeed()
	if err != nil {
		return nil, err
	}
	s.trace(s.sample)
	s.length = len(s.buf)

	for i := 0; i < cfg.Warmup; i++ {
		if _, ok := s.Next(); !ok {
			break
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	DebugLog("Sampler warmed up: seed=%+v, length=%d, remaining=%d, stats=%+v", s.sample, s.length, s.remaining, s.stats)
	return s, nil
}

// Next returns the trace of the next accepted transition. ok is false once
// the budget is spent or when sampling failed, see Err.
func (s *Sampler) Next() (trace []Complex, ok bool) {
	if s.remaining <= 0 || s.err != nil {
		return nil, false
	}
	for attempt := 0; s.maxAttempts == 0 || attempt < s.maxAttempts; attempt++ {
		cand, err := s.propose()
		if err != nil {
			s.err = err
			return nil, false
		}
		if last := s.trace(cand); !escaped(last) {
			s.stats.Invalid++
			continue
		}
		if !s.accept(len(s.buf)) {
			s.stats.Rejected++
			continue
		}
		s.sample, s.length = cand, len(s.buf)
		s.remaining--
		s.stats.Accepted++
		return slices.Clone(s.buf), true
	}
	s.err = fmt.Errorf("%w: no transition accepted in %d proposals around %+v", ErrDegenerateSampling, s.maxAttempts, s.sample)
	return nil, false
}

// Remaining returns the unconsumed budget.
func (s *Sampler) Remaining() int { return s.remaining }

// Finished tells whether the budget is spent or sampling failed.
func (s *Sampler) Finished() bool { return s.remaining <= 0 || s.err != nil }

// Err returns the error which stopped the sampler, if any.
func (s *Sampler) Err() error { return s.err }

// Stats returns the proposal counters.
func (s *Sampler) Stats() SamplerStats { return s.stats }

func (s *Sampler) propose() (Complex, error) {
	if s.rng.Float64() < LargeJumpProb {
		return s.randomSeed()
	}
	return s.mutate(s.sample), nil
}

// randomSeed rejection-samples [-SeedBox, SeedBox]^2 until it finds a point
// whose orbit escapes within the iteration cap.
func (s *Sampler) randomSeed() (Complex, error) {
	for attempt := 0; s.maxAttempts == 0 || attempt < s.maxAttempts; attempt++ {
		c := Complex{
			(2*s.rng.Float64() - 1) * SeedBox,
			(2*s.rng.Float64() - 1) * SeedBox,
		}
		if escaped(NewOrbit(c, s.iterations).Last()) {
			return c, nil
		}
	}
	return Complex{}, fmt.Errorf("%w: no escaping seed in %d draws with %d iterations", ErrDegenerateSampling, s.maxAttempts, s.iterations)
}

// mutate offsets c by a random polar step. The radius is log-uniform between
// the small and the large step of each axis.
func (s *Sampler) mutate(c Complex) Complex {
	u := s.rng.Float64()
	phi := s.rng.Float64() * 2 * math.Pi
	rr := s.large[0] * math.Exp(-math.Log(s.large[0]/s.small[0])*u)
	ri := s.large[1] * math.Exp(-math.Log(s.large[1]/s.small[1])*u)
	return Complex{c.R + rr*math.Cos(phi), c.I + ri*math.Sin(phi)}
}

// trace fills s.buf with the orbit points of c inside the frame and returns
// the final point of the orbit, which is tracked regardless of the frame.
func (s *Sampler) trace(c Complex) (last Complex) {
	s.buf = s.buf[:0]
	o := NewOrbit(c, s.iterations)
	for {
		z, ok := o.Next()
		if !ok {
			return last
		}
		last = z
		if s.frame.Contains(z) {
			s.buf = append(s.buf, z)
		}
	}
}

// accept runs the Metropolis-Hastings test for a candidate whose trace has candLen points.
func (s *Sampler) accept(candLen int) bool {
	if candLen == 0 {
		return false
	}
	if s.length == 0 {
		return true
	}
	return acceptance(s.length, candLen, s.iterations) >= s.rng.Float64()
}

// contribution estimates how much an orbit with length points brightens the image.
func contribution(length, iterations int) Real {
	return Real(length) / Real(iterations)
}

// acceptance returns the probability of moving from a seed with trace length
// cur to one with trace length cand. Both lengths must be positive. Both
// proposals are symmetric, their forward and backward densities cancel.
func acceptance(cur, cand, iterations int) Real {
	fwd := contribution(cand, iterations)
	bwd := contribution(cur, iterations)
	return math.Min(1, math.Exp(math.Log(fwd)-math.Log(bwd)))
}
