// Package u128 provides an unsigned 128-bit integer value type with
// explicit, checked arithmetic.
//
// What
//
//   - Uint128 is a comparable value type (usable as a map key) made of two
//     uint64 halves.
//   - Every operation that can leave the representable range returns
//     (result, ok); ok==false means the true result does not fit and the
//     returned value must be discarded.
//   - Arithmetic and decimal conversion run on github.com/holiman/uint256;
//     Wide and FromWide move between the two. Uint128 itself stays 16 bytes,
//     which halves memo keys compared with a 32-byte uint256.Int.
//   - Mask(bits) builds the largest value of a narrower width, so callers can
//     emulate 8-, 16-, 32- or 64-bit arithmetic on the same type.
//
// Why
//
//	Collatz trajectories climb far above their starting value. Wraparound
//	would silently corrupt a path length, so the algorithms in this module
//	only ever use the checked forms.
//
// Usage
//
//	n := u128.From64(27)
//	t, ok := n.MulUint64(3)
//	if ok {
//	    t, ok = t.AddUint64(1)
//	}
//	if !ok {
//	    // overflow: the caller decides what to do
//	}
//
// Complexity
//
//   - All arithmetic is O(1) and allocation-free except String/Parse,
//     which are O(digits).
package u128
