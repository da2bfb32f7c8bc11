// Package inverse provides options and error definitions for
// enumerating the predecessor tree of 1.
package inverse

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for level enumeration.
var (
	// ErrNegativeLength is returned for a negative path length.
	ErrNegativeLength = errors.New("inverse: path length must be non-negative")

	// ErrEmptyLevel is returned by Smallest when no value of the requested
	// length fits the configured width.
	ErrEmptyLevel = errors.New("inverse: no value of that length fits the width")

	// ErrFrontierLimit is returned when a level grows past MaxFrontier values.
	ErrFrontierLimit = errors.New("inverse: frontier limit exceeded")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("inverse: invalid option supplied")
)

// DefaultMaxFrontier caps a single level; length 60 already holds ~10^7 values.
const DefaultMaxFrontier = 1 << 22

// Option configures enumeration via functional arguments.
type Option func(*Options)

// Options holds parameters for Level and Smallest.
type Options struct {
	// Ctx allows cancellation between levels.
	Ctx context.Context

	// Bits is the integer width; values beyond 2^Bits-1 are pruned.
	Bits int

	// MaxFrontier limits the size of one level; 0 disables it.
	MaxFrontier int

	// internal error recorded during option parsing
	err error
}

// DefaultOptions returns Options with a background context, 128-bit width
// and DefaultMaxFrontier.
func DefaultOptions() Options {
	return Options{
		Ctx:         context.Background(),
		Bits:        128,
		MaxFrontier: DefaultMaxFrontier,
	}
}

// WithContext sets a custom context for cancellation.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx != nil {
			o.Ctx = ctx
		}
	}
}

// WithBits sets the integer width in [4, 128].
func WithBits(bits int) Option {
	return func(o *Options) {
		if bits < 4 || bits > 128 {
			o.err = fmt.Errorf("%w: Bits must be in [4,128] (got %d)", ErrOptionViolation, bits)
			return
		}
		o.Bits = bits
	}
}

// WithMaxFrontier bounds the size of one level; 0 means no limit.
func WithMaxFrontier(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = fmt.Errorf("%w: MaxFrontier cannot be negative (%d)", ErrOptionViolation, n)
			return
		}
		o.MaxFrontier = n
	}
}
