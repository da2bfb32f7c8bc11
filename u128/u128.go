package u128

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Sentinel errors for parsing and decoding.
var (
	// ErrSyntax is returned when a decimal string contains a non-digit or is empty.
	ErrSyntax = errors.New("u128: invalid syntax")

	// ErrRange is returned when a decimal string does not fit into 128 bits.
	ErrRange = errors.New("u128: value out of range")

	// ErrBadLength is returned by FromBytes when the input is not exactly 16 bytes.
	ErrBadLength = errors.New("u128: encoded value must be 16 bytes")
)

// Uint128 is an unsigned 128-bit integer. The zero value is 0.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Common constants.
var (
	Zero = Uint128{}
	One  = Uint128{Lo: 1}
	Max  = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
)

// From64 widens v.
func From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// Wide returns u as a 256-bit integer.
func (u Uint128) Wide() uint256.Int {
	return uint256.Int{u.Lo, u.Hi, 0, 0}
}

// FromWide narrows x. ok is false when x needs more than 128 bits.
func FromWide(x *uint256.Int) (Uint128, bool) {
	return Uint128{Hi: x[1], Lo: x[0]}, x[2]|x[3] == 0
}

// Pow2 returns 2^k. ok is false when k >= 128.
func Pow2(k uint) (Uint128, bool) {
	switch {
	case k >= 128:
		return Zero, false
	case k >= 64:
		return Uint128{Hi: 1 << (k - 64)}, true
	default:
		return Uint128{Lo: 1 << k}, true
	}
}

// Mask returns 2^width - 1, the largest value representable in width bits.
// A width of 0 yields Zero and widths >= 128 yield Max.
func Mask(width uint) Uint128 {
	switch {
	case width == 0:
		return Zero
	case width >= 128:
		return Max
	case width >= 64:
		return Uint128{Hi: (1 << (width - 64)) - 1, Lo: ^uint64(0)}
	default:
		return Uint128{Lo: (1 << width) - 1}
	}
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// IsUint64 reports whether u fits into a uint64.
func (u Uint128) IsUint64() bool {
	return u.Hi == 0
}

// Uint64 returns the low 64 bits of u.
func (u Uint128) Uint64() uint64 {
	return u.Lo
}

// Even reports whether u is divisible by two.
func (u Uint128) Even() bool {
	return u.Lo&1 == 0
}

// Cmp compares u and v and returns -1, 0 or +1.
func (u Uint128) Cmp(v Uint128) int {
	a, b := u.Wide(), v.Wide()
	return a.Cmp(&b)
}

// Less reports whether u < v.
func (u Uint128) Less(v Uint128) bool {
	return u.Cmp(v) < 0
}

// BitLen returns the number of bits required to represent u.
func (u Uint128) BitLen() int {
	w := u.Wide()
	return w.BitLen()
}

// AddUint64 returns u+v. ok is false on overflow.
func (u Uint128) AddUint64(v uint64) (Uint128, bool) {
	w := u.Wide()
	w.AddUint64(&w, v)
	return FromWide(&w)
}

// SubUint64 returns u-v. ok is false when v > u.
func (u Uint128) SubUint64(v uint64) (Uint128, bool) {
	w := u.Wide()
	_, borrow := w.SubOverflow(&w, uint256.NewInt(v))
	r, _ := FromWide(&w)
	return r, !borrow
}

// MulUint64 returns u*v. ok is false on overflow.
func (u Uint128) MulUint64(v uint64) (Uint128, bool) {
	w := u.Wide()
	w.Mul(&w, uint256.NewInt(v)) // at most 192 bits
	return FromWide(&w)
}

// Lsh1 returns 2u. ok is false when the top bit is set.
func (u Uint128) Lsh1() (Uint128, bool) {
	w := u.Wide()
	w.Lsh(&w, 1)
	return FromWide(&w)
}

// Rsh1 returns u/2 rounded down.
func (u Uint128) Rsh1() Uint128 {
	return Uint128{Hi: u.Hi >> 1, Lo: u.Lo>>1 | u.Hi<<63}
}

// DivModUint64 returns the quotient and remainder of u/v.
// It panics if v == 0, like the built-in division.
func (u Uint128) DivModUint64(v uint64) (Uint128, uint64) {
	if v == 0 {
		panic("u128: division by zero")
	}
	var q, m uint256.Int
	w := u.Wide()
	q.DivMod(&w, uint256.NewInt(v), &m)
	r, _ := FromWide(&q)
	return r, m.Uint64()
}

// String formats u in base 10.
func (u Uint128) String() string {
	w := u.Wide()
	return w.Dec()
}

// Parse reads a base-10 unsigned integer made of ASCII digits only.
func Parse(s string) (Uint128, error) {
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrSyntax)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
	}

	var w uint256.Int
	if err := w.SetFromDecimal(s); err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrRange, s)
	}
	u, ok := FromWide(&w)
	if !ok {
		return Zero, fmt.Errorf("%w: %q", ErrRange, s)
	}
	return u, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests
// and examples.
func MustParse(s string) Uint128 {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// MarshalText implements encoding.TextMarshaler.
func (u Uint128) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Uint128) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Bytes returns the 16-byte big-endian encoding of u. Byte order matches
// numeric order, so encoded values sort correctly as keys.
func (u Uint128) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], u.Hi)
	binary.BigEndian.PutUint64(b[8:], u.Lo)
	return b
}

// FromBytes decodes the output of Bytes.
func FromBytes(b []byte) (Uint128, error) {
	if len(b) != 16 {
		return Zero, fmt.Errorf("%w: got %d", ErrBadLength, len(b))
	}
	return Uint128{
		Hi: binary.BigEndian.Uint64(b[:8]),
		Lo: binary.BigEndian.Uint64(b[8:]),
	}, nil
}
