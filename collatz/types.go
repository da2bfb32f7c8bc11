// Package collatz provides tunable options, results and error definitions
// for the Collatz path-length search.
package collatz

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/collatz/u128"
)

// Sentinel errors for the search.
var (
	// ErrOverflow is returned when a 3n+1 step would exceed the configured
	// integer width. The query is abandoned: the true length is unknown.
	ErrOverflow = errors.New("collatz: arithmetic overflow")

	// ErrNotFound is returned when every start below the search bound was
	// examined without meeting the requested path length. Only a bound set
	// with WithBound can cause it: the default bound 2^L is always beaten.
	ErrNotFound = errors.New("collatz: no value with the requested path length")

	// ErrNegativeTarget is returned for a negative target path length.
	ErrNegativeTarget = errors.New("collatz: target path length must be non-negative")

	// ErrWalkLimit is returned when a single forward walk grows past MaxWalk values.
	ErrWalkLimit = errors.New("collatz: forward walk limit exceeded")

	// ErrMemoLimit is returned when recording a walk would grow the memo
	// past MaxMemo entries.
	ErrMemoLimit = errors.New("collatz: memo size limit exceeded")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("collatz: invalid option supplied")
)

// Width and walk limits.
const (
	// MinBits is the narrowest supported integer width.
	MinBits = 4

	// MaxBits is the widest supported integer width.
	MaxBits = 128

	// DefaultBits matches the widest width.
	DefaultBits = MaxBits

	// DefaultMaxWalk bounds a single forward walk. Known trajectories below
	// 2^68 are a few thousand steps long, so this only trips on runaway input.
	DefaultMaxWalk = 1 << 20
)

// ctxCheckInterval is how many start candidates, or steps of one walk, pass
// between cancellation checks.
const ctxCheckInterval = 1024

// Option configures the search via functional arguments.
// If an Option is invalid (e.g. Bits out of range), it is recorded
// internally and surfaced as ErrOptionViolation when the search is invoked.
type Option func(*Options)

// Options holds parameters and callbacks for Find, PathLength and Trajectory.
type Options struct {
	// Ctx allows cancellation between start candidates.
	Ctx context.Context

	// Bits is the integer width. Every value reached must fit into
	// Bits bits, otherwise the query fails with ErrOverflow.
	Bits int

	// Memo, if non-nil, is shared with the caller and survives the query.
	// When nil a fresh memo is created per call.
	Memo *Memo

	// MaxWalk limits the number of values in one forward walk; 0 disables it.
	MaxWalk int

	// MaxMemo caps the memo size; 0 disables it. The check runs before each
	// walk is recorded, so parallel queries on a shared memo may overshoot
	// by at most one walk each.
	MaxMemo int

	// Bound, when non-zero, restricts Find to starts below it.
	Bound u128.Uint128

	// OnRecord is called for every length written into the memo.
	OnRecord func(v u128.Uint128, length int)

	// internal error recorded during option parsing
	err error
}

// DefaultOptions returns Options with:
//   - context.Background()
//   - 128-bit width
//   - a fresh memo per call
//   - DefaultMaxWalk, no memo cap, no start bound
//   - no-op OnRecord hook.
func DefaultOptions() Options {
	return Options{
		Ctx:      context.Background(),
		Bits:     DefaultBits,
		MaxWalk:  DefaultMaxWalk,
		OnRecord: func(u128.Uint128, int) {},
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

// WithBits sets the integer width in [MinBits, MaxBits].
func WithBits(bits int) Option {
	return func(o *Options) {
		if bits < MinBits || bits > MaxBits {
			o.err = fmt.Errorf("%w: Bits must be in [%d,%d] (got %d)", ErrOptionViolation, MinBits, MaxBits, bits)
			return
		}
		o.Bits = bits
	}
}

// WithMemo shares m across calls. Path lengths are absolute properties of a
// value, so one memo may serve queries for different targets and widths.
func WithMemo(m *Memo) Option {
	return func(o *Options) {
		if m != nil {
			o.Memo = m
		}
	}
}

// WithMaxWalk bounds a single forward walk.
//
//	n > 0: limit to n values
//	n == 0: no limit
//	n < 0: invalid option → ErrOptionViolation
func WithMaxWalk(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = fmt.Errorf("%w: MaxWalk cannot be negative (%d)", ErrOptionViolation, n)
			return
		}
		o.MaxWalk = n
	}
}

// WithMaxMemo caps the number of memo entries.
//
//	n > 0: fail with ErrMemoLimit instead of growing past n entries
//	n == 0: no limit
//	n < 0: invalid option → ErrOptionViolation
func WithMaxMemo(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = fmt.Errorf("%w: MaxMemo cannot be negative (%d)", ErrOptionViolation, n)
			return
		}
		o.MaxMemo = n
	}
}

// WithBound makes Find examine only starts below b. When the answer is not
// below b, Find returns ErrNotFound. b must be positive.
func WithBound(b u128.Uint128) Option {
	return func(o *Options) {
		if b.IsZero() {
			o.err = fmt.Errorf("%w: Bound must be positive", ErrOptionViolation)
			return
		}
		o.Bound = b
	}
}

// WithOnRecord registers a callback run for every memo entry written.
func WithOnRecord(fn func(v u128.Uint128, length int)) Option {
	return func(o *Options) {
		if fn != nil {
			o.OnRecord = fn
		}
	}
}

// Result is the outcome of a successful Find.
type Result struct {
	// Target is the requested path length.
	Target int

	// Value is the smallest positive integer whose path length equals Target.
	Value u128.Uint128

	// Explored counts start candidates examined.
	Explored uint64

	// Recorded counts memo entries written by this query.
	Recorded int

	// Peak is the largest value reached while walking.
	Peak u128.Uint128

	// MemoSize is the number of memo entries when the query finished.
	MemoSize int
}

// buildOptions applies opts over the defaults.
func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return Options{}, o.err
	}
	if o.Memo == nil {
		o.Memo = NewMemo()
	}
	return o, nil
}
