// Package collatz finds the smallest positive integer whose Collatz
// trajectory has a given path length.
//
// What
//
//   - Collatz step: n → n/2 if n is even, otherwise 3n+1.
//   - Path length: the number of values from n down to 1, both included.
//     length(1) = 1 and, as a degenerate definition, length(0) = 0.
//   - Find(L) returns the smallest n with length(n) == L.
//   - PathLength(n) and Trajectory(n) expose the same walk for one value.
//
// How
//
//	Candidates are tried in increasing order. Each unknown candidate is
//	walked forward (iteratively, never recursively) until a value with a
//	known length is met; the working path is then assigned lengths in
//	reverse. The search stops once the candidate reaches the smallest value
//	already seen with length L. The initial bound 2^L is always beaten
//	because 2^(L-1) has length L.
//
// Overflow
//
//	Trajectories climb far above their start. Values are u128.Uint128 and
//	every 3n+1 is checked against the configured width (WithBits, default
//	128). Crossing it fails the whole query with ErrOverflow: the true
//	length is unknown and skipping the start could return a wrong answer.
//
// Memo lifetime
//
//	Each call creates a fresh memo unless WithMemo supplies one. Reusing a
//	memo across targets and widths is safe: a path length is a property of
//	the value alone, memoized candidates still compete for the answer, and
//	every entry keeps its trajectory's peak width so a narrower query still
//	fails with ErrOverflow exactly where a fresh memo would.
//
// Usage
//
//	res, err := collatz.Find(112)
//	// res.Value == 27
//
//	res, err = collatz.Find(
//	    500,
//	    collatz.WithBits(64),
//	    collatz.WithMemo(shared),
//	    collatz.WithContext(ctx),
//	    collatz.WithOnRecord(func(v u128.Uint128, l int) { /* ... */ }),
//	)
//
// Errors
//
//   - ErrNegativeTarget   if L < 0.
//   - ErrOptionViolation  if an Option is invalid (e.g. Bits outside [4,128]).
//   - ErrOverflow         if a step leaves the configured width.
//   - ErrWalkLimit        if one forward walk exceeds MaxWalk values.
//   - ErrMemoLimit        if the memo would grow past MaxMemo entries.
//   - ErrNotFound         if no start below the WithBound bound has length L.
//
// Concurrency
//
//	A query is synchronous. Memo is safe for concurrent use, so parallel
//	queries may share one.
package collatz
