package collatz

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/katalvlaran/collatz/u128"
)

var three = uint256.NewInt(3)

// Next applies one Collatz step: n/2 for even n, 3n+1 for odd n.
// ok is false when 3n+1 would exceed ceiling.
//
// Complexity: O(1).
func Next(n, ceiling u128.Uint128) (u128.Uint128, bool) {
	if n.Even() {
		return n.Rsh1(), true
	}
	// 3n+1 < 2^130, so the 256-bit product never wraps.
	w := n.Wide()
	w.Mul(&w, three)
	w.AddUint64(&w, 1)
	t, fits := u128.FromWide(&w)
	if !fits || ceiling.Less(t) {
		return u128.Zero, false
	}
	return t, true
}

// walker encapsulates mutable search state for one call.
type walker struct {
	opts     Options
	ceiling  u128.Uint128
	memo     *Memo
	path     []u128.Uint128 // working path, reused between walks
	peak     u128.Uint128
	recorded int
}

func newWalker(o Options) *walker {
	return &walker{
		opts:    o,
		ceiling: u128.Mask(uint(o.Bits)),
		memo:    o.Memo,
		path:    make([]u128.Uint128, 0, 256),
	}
}

// lookup returns the memoized length of v. A hit whose trajectory climbs
// past the width is an overflow, as walking it would have been.
func (w *walker) lookup(start, v u128.Uint128) (length, peakBits int, ok bool, err error) {
	length, peakBits, ok = w.memo.Lookup(v)
	if ok && peakBits > w.opts.Bits {
		return 0, 0, true, fmt.Errorf("%w: start %s, trajectory of %s needs %d bits, width is %d",
			ErrOverflow, start, v, peakBits, w.opts.Bits)
	}
	return length, peakBits, ok, nil
}

// resolve returns the path length of start. Unknown values are walked
// forward until a memoized value is met, then lengths are back-assigned in
// reverse order. visit, if non-nil, sees every newly assigned (value, length).
func (w *walker) resolve(start u128.Uint128, visit func(v u128.Uint128, length int)) (int, error) {
	if l, _, ok, err := w.lookup(start, start); ok || err != nil {
		return l, err
	}

	// Forward walk over the untraversed segment.
	w.path = w.path[:0]
	w.raisePeak(start)
	var (
		n                 = start
		baseLen, basePeak int
	)
	for {
		if len(w.path)%ctxCheckInterval == 0 {
			if err := w.opts.Ctx.Err(); err != nil {
				return 0, err
			}
		}
		w.path = append(w.path, n)
		if w.opts.MaxWalk > 0 && len(w.path) > w.opts.MaxWalk {
			return 0, fmt.Errorf("%w: start %s passed %d values", ErrWalkLimit, start, w.opts.MaxWalk)
		}
		next, ok := Next(n, w.ceiling)
		if !ok {
			return 0, fmt.Errorf("%w: start %s, step from %s exceeds %d bits", ErrOverflow, start, n, w.opts.Bits)
		}
		w.raisePeak(next)
		l, pb, known, err := w.lookup(start, next)
		if err != nil {
			return 0, err
		}
		if known {
			baseLen, basePeak = l, pb
			break
		}
		n = next
	}

	if w.opts.MaxMemo > 0 {
		if size := w.memo.Len(); size+len(w.path) > w.opts.MaxMemo {
			return 0, fmt.Errorf("%w: start %s adds %d entries to %d, limit %d",
				ErrMemoLimit, start, len(w.path), size, w.opts.MaxMemo)
		}
	}

	// Reverse pass: last visited gets baseLen+1, the one before baseLen+2, ...
	length, peakBits := baseLen, basePeak
	for i := len(w.path) - 1; i >= 0; i-- {
		length++
		v := w.path[i]
		if b := v.BitLen(); b > peakBits {
			peakBits = b
		}
		if w.memo.Record(v, length, peakBits) {
			w.recorded++
			w.opts.OnRecord(v, length)
		}
		if visit != nil {
			visit(v, length)
		}
	}
	return length, nil
}

func (w *walker) raisePeak(v u128.Uint128) {
	if w.peak.Less(v) {
		w.peak = v
	}
}

// Find returns the smallest positive integer whose Collatz path length is
// exactly target. length(1) = 1; target 0 and 1 are returned as-is.
//
// Algorithm Outline:
//  1. Memo seeded with {1 → 1}; smallest = 2^target (saturating), a bound
//     no answer can reach since 2^(target-1) itself has length target.
//     WithBound lowers it further.
//  2. For start = 2, 3, ... while start < smallest:
//     - a memoized start only competes for smallest;
//     - otherwise walk forward, recording the working path, until a
//     memoized value of length K is met; back-assign K+1, K+2, ... in
//     reverse, and every assignment equal to target lowers smallest.
//  3. Any 3n+1 step beyond the integer width aborts the query, and so does
//     a memo hit whose recorded trajectory is wider than the width.
//
// Complexity:
//
//	Time   = O(V) memo operations, V = distinct values reached below the answer's bound
//	Memory = O(V) for the memo
//
// Errors:
//   - ErrNegativeTarget  : target < 0.
//   - ErrOptionViolation : invalid Option.
//   - ErrOverflow        : a step would exceed the integer width.
//   - ErrWalkLimit       : a forward walk exceeded MaxWalk.
//   - ErrMemoLimit       : the memo would grow past MaxMemo.
//   - ErrNotFound        : no start below the WithBound bound has the length.
//   - ctx.Err()          : the context was cancelled.
func Find(target int, opts ...Option) (Result, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return Result{}, err
	}
	if target < 0 {
		return Result{}, fmt.Errorf("%w (got %d)", ErrNegativeTarget, target)
	}
	if target < 2 {
		v := u128.From64(uint64(target))
		return Result{Target: target, Value: v, Peak: v, MemoSize: o.Memo.Len()}, nil
	}

	w := newWalker(o)
	smallest, bounded := u128.Pow2(uint(target))
	if !bounded {
		smallest = u128.Max
	}
	if !o.Bound.IsZero() && o.Bound.Less(smallest) {
		smallest = o.Bound
	}
	var (
		found    bool
		explored uint64
		start    = u128.From64(2)
	)
	consider := func(v u128.Uint128, length int) {
		if length == target && v.Less(smallest) {
			smallest, found = v, true
		}
	}

	for start.Less(smallest) {
		if explored%ctxCheckInterval == 0 {
			if err = o.Ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		explored++

		l, _, ok, err := w.lookup(start, start)
		switch {
		case err != nil:
			return Result{}, err
		case ok:
			consider(start, l)
		default:
			if _, err = w.resolve(start, consider); err != nil {
				return Result{}, err
			}
		}

		if start == w.ceiling {
			break
		}
		start, _ = start.AddUint64(1)
	}

	if !found {
		return Result{}, fmt.Errorf("%w: target %d, no start below %s", ErrNotFound, target, smallest)
	}
	return Result{
		Target:   target,
		Value:    smallest,
		Explored: explored,
		Recorded: w.recorded,
		Peak:     w.peak,
		MemoSize: w.memo.Len(),
	}, nil
}

// PathLength returns the number of values on the trajectory from n to 1,
// both included. PathLength(1) == 1 and PathLength(0) == 0.
//
// Errors: ErrOptionViolation, ErrOverflow, ErrWalkLimit, ErrMemoLimit, ctx.Err().
func PathLength(n u128.Uint128, opts ...Option) (int, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return 0, err
	}
	if n.IsZero() {
		return 0, nil
	}
	if u128.Mask(uint(o.Bits)).Less(n) {
		return 0, fmt.Errorf("%w: %s does not fit in %d bits", ErrOverflow, n, o.Bits)
	}
	return newWalker(o).resolve(n, nil)
}

// Trajectory returns the values visited from n down to 1, both included.
// len(Trajectory(n)) == PathLength(n); Trajectory(0) is empty.
// The memo is neither read nor written.
//
// Errors: ErrOptionViolation, ErrOverflow, ErrWalkLimit, ctx.Err().
func Trajectory(n u128.Uint128, opts ...Option) ([]u128.Uint128, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if n.IsZero() {
		return nil, nil
	}
	ceiling := u128.Mask(uint(o.Bits))
	if ceiling.Less(n) {
		return nil, fmt.Errorf("%w: %s does not fit in %d bits", ErrOverflow, n, o.Bits)
	}

	out := []u128.Uint128{n}
	for n != u128.One {
		if (len(out)-1)%ctxCheckInterval == 0 {
			if err = o.Ctx.Err(); err != nil {
				return nil, err
			}
		}
		if o.MaxWalk > 0 && len(out) > o.MaxWalk {
			return nil, fmt.Errorf("%w: passed %d values", ErrWalkLimit, o.MaxWalk)
		}
		next, ok := Next(n, ceiling)
		if !ok {
			return nil, fmt.Errorf("%w: step from %s exceeds %d bits", ErrOverflow, n, o.Bits)
		}
		out = append(out, next)
		n = next
	}
	return out, nil
}
