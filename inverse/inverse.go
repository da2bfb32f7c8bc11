// Package inverse enumerates the Collatz predecessor tree rooted at 1,
// level by level. Level L holds exactly the values whose path length is L,
// which makes it an independent oracle for collatz.Find.
//
// Predecessors of m:
//   - 2m, always;
//   - (m-1)/3, when m ≡ 4 (mod 6) and m > 4 (the result is odd and > 1).
//
// The forward map is a function, so every value has one parent and the
// tree never repeats a value; no visited set is needed.
//
// Width
//
//	With WithBits(b), values above 2^b-1 are pruned. Level L then holds the
//	values of length L whose whole trajectory fits b bits. This can differ
//	from collatz.Find, which fails as soon as a smaller candidate overflows.
//
// Complexity
//
//	Level sizes grow roughly like (4/3)^L.
//	Time and memory are O(Σ level sizes) up to L.
package inverse

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/collatz/u128"
)

// walker encapsulates the frontier state.
type walker struct {
	opts     Options
	ceiling  u128.Uint128
	frontier []u128.Uint128
}

// Level returns all values with path length exactly length, sorted ascending.
// Level(0) is empty; Level(1) is [1].
//
// Errors: ErrNegativeLength, ErrOptionViolation, ErrFrontierLimit, ctx.Err().
func Level(length int, opts ...Option) ([]u128.Uint128, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if length < 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrNegativeLength, length)
	}
	if length == 0 {
		return nil, nil
	}

	w := &walker{
		opts:     o,
		ceiling:  u128.Mask(uint(o.Bits)),
		frontier: []u128.Uint128{u128.One},
	}
	for depth := 1; depth < length; depth++ {
		// cancellation check (once per level)
		select {
		case <-o.Ctx.Done():
			return nil, o.Ctx.Err()
		default:
		}
		if err := w.expand(depth + 1); err != nil {
			return nil, err
		}
		if len(w.frontier) == 0 {
			break
		}
	}

	out := w.frontier
	slices.SortFunc(out, func(a, b u128.Uint128) int { return a.Cmp(b) })
	return out, nil
}

// expand replaces the frontier by all predecessors within the ceiling.
func (w *walker) expand(nextDepth int) error {
	next := make([]u128.Uint128, 0, len(w.frontier)+len(w.frontier)/3+1)
	for _, m := range w.frontier {
		if d, ok := m.Lsh1(); ok && !w.ceiling.Less(d) {
			next = append(next, d)
		}
		if p, ok := oddPredecessor(m); ok {
			next = append(next, p)
		}
	}
	if w.opts.MaxFrontier > 0 && len(next) > w.opts.MaxFrontier {
		return fmt.Errorf("%w: length %d holds %d values (limit %d)",
			ErrFrontierLimit, nextDepth, len(next), w.opts.MaxFrontier)
	}
	w.frontier = next
	return nil
}

// oddPredecessor returns (m-1)/3 when that is an odd integer greater than 1.
func oddPredecessor(m u128.Uint128) (u128.Uint128, bool) {
	if _, r := m.DivModUint64(6); r != 4 {
		return u128.Zero, false
	}
	if !u128.From64(4).Less(m) {
		return u128.Zero, false
	}
	mm, _ := m.SubUint64(1)
	q, _ := mm.DivModUint64(3)
	return q, true
}

// Smallest returns the minimum of Level(length).
//
// Errors: as Level, plus ErrEmptyLevel when the level is empty.
func Smallest(length int, opts ...Option) (u128.Uint128, error) {
	lvl, err := Level(length, opts...)
	if err != nil {
		return u128.Zero, err
	}
	if len(lvl) == 0 {
		if length == 0 {
			return u128.Zero, nil
		}
		return u128.Zero, fmt.Errorf("%w: length %d", ErrEmptyLevel, length)
	}
	return lvl[0], nil
}
