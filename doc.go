// Package collatz finds, for a path length L, the smallest positive integer
// whose Collatz trajectory holds exactly L values, counting the start and
// the final 1.
//
// What is in the module?
//
//	u128/      unsigned 128-bit values with checked arithmetic
//	collatz/   the finder: Find, PathLength, Trajectory, the shared Memo
//	inverse/   predecessor-tree levels, an independent oracle for Find
//	memostore/ BadgerDB archive of a Memo between runs
//	metrics/   Prometheus collectors for queries and memo growth
//	cmd/collatz CLI (find, length, chain, verify, serve)
//
// Conventions:
//
//	length(1) = 1, length(0) = 0, and Find(L) returns L for L < 2.
//	A 3n+1 step past the configured width fails the whole query with
//	ErrOverflow; no wrong answer is ever returned.
//
// Quick start:
//
//	res, err := collatz.Find(112)
//	if err != nil {
//		// errors.Is(err, collatz.ErrOverflow) ...
//	}
//	fmt.Println(res.Value) // 27
//
// See the package docs for options, complexity and error contracts.
package collatz
