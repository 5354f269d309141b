package butterbrot

import "errors"

var (
	ErrMalformed          = errors.New("malformed birb")
	ErrDimensionMismatch  = errors.New("birb dimensions differ")
	ErrPoisoned           = errors.New("histogram lock poisoned")
	ErrPixelOutOfRange    = errors.New("pixel out of range")
	ErrDegenerateSampling = errors.New("degenerate sampling")
	ErrInvalidConfig      = errors.New("invalid config")
)
