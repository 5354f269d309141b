package butterbrot

import "time"

// Defaults follow the butterbrot command line tool.
const (
	Width        = 400
	Height       = 400
	Threads      = 7
	Samples      = 10_000
	Iterations   = 100
	Warmup       = 1000
	Zoom         = 100.0
	LogInterval  = 10 * time.Second
	PollInterval = 200 * time.Millisecond
	MaxAttempts  = 1 << 20 // rejection sampling attempts per draw, 0 means unbounded
	FlushLocked  = "locked"
	FlushPartial = "partial"
	// sampler tuning
	EscapeRadius  = 2.0
	SeedBox       = 2.0     // initial and large-jump seeds are drawn from [-SeedBox, SeedBox]^2
	LargeJumpProb = 1.0 / 6 // probability of a global re-sample instead of a local mutation
	SmallStep     = 0.1     // small mutation radius, in pixel steps
	LargeStep     = 100.0   // large mutation radius, in pixel steps
	headerWords   = 2
	wordSize      = 8
)
