package u128_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/katalvlaran/collatz/u128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestString_RoundTripsKnownValues checks decimal formatting across the
// 64-bit boundary, including a value with an all-zero middle chunk.
func TestString_RoundTripsKnownValues(t *testing.T) {
	cases := []struct {
		name string
		v    u128.Uint128
		want string
	}{
		{"zero", u128.Zero, "0"},
		{"one", u128.One, "1"},
		{"max64", u128.From64(^uint64(0)), "18446744073709551615"},
		{"two^64", u128.Uint128{Hi: 1}, "18446744073709551616"},
		{"1e38+5", u128.Uint128{Hi: 5421010862427522170, Lo: 687399551400673285}, "100000000000000000000000000000000000005"},
		{"max", u128.Max, "340282366920938463463374607431768211455"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.v.String())
			back, err := u128.Parse(tc.want)
			require.NoError(t, err)
			assert.Equal(t, tc.v, back)
		})
	}
}

// TestParse_Errors covers empty input, non-digits and values above 2^128-1.
func TestParse_Errors(t *testing.T) {
	_, err := u128.Parse("")
	assert.ErrorIs(t, err, u128.ErrSyntax)

	_, err = u128.Parse("12a")
	assert.ErrorIs(t, err, u128.ErrSyntax)

	_, err = u128.Parse("-1")
	assert.ErrorIs(t, err, u128.ErrSyntax)

	_, err = u128.Parse("340282366920938463463374607431768211456")
	assert.ErrorIs(t, err, u128.ErrRange)
}

// TestMulAdd_DetectsOverflow verifies the checked 3n+1 building blocks.
func TestMulAdd_DetectsOverflow(t *testing.T) {
	v, ok := u128.From64(^uint64(0)).MulUint64(3)
	require.True(t, ok, "64-bit max times 3 fits in 128 bits")
	assert.Equal(t, "55340232221128654845", v.String())

	_, ok = u128.Max.MulUint64(3)
	assert.False(t, ok)

	_, ok = u128.Max.AddUint64(1)
	assert.False(t, ok)

	third, _ := u128.Max.DivModUint64(3)
	v, ok = third.MulUint64(3)
	require.True(t, ok)
	assert.Equal(t, u128.Max, v)

	v, ok = u128.From64(^uint64(0)).AddUint64(1)
	require.True(t, ok)
	assert.Equal(t, u128.Uint128{Hi: 1}, v)
}

// TestSubUint64_Borrow checks the borrow across halves and underflow.
func TestSubUint64_Borrow(t *testing.T) {
	v, ok := u128.Uint128{Hi: 1}.SubUint64(1)
	require.True(t, ok)
	assert.Equal(t, u128.From64(^uint64(0)), v)

	_, ok = u128.Zero.SubUint64(1)
	assert.False(t, ok)
}

// TestShifts checks Lsh1/Rsh1 carry between halves.
func TestShifts(t *testing.T) {
	v, ok := u128.From64(1 << 63).Lsh1()
	require.True(t, ok)
	assert.Equal(t, u128.Uint128{Hi: 1}, v)
	assert.Equal(t, u128.From64(1<<63), v.Rsh1())

	_, ok = u128.Uint128{Hi: 1 << 63}.Lsh1()
	assert.False(t, ok)
}

// TestPow2AndMask covers both halves and the saturating edges.
func TestPow2AndMask(t *testing.T) {
	p, ok := u128.Pow2(0)
	require.True(t, ok)
	assert.Equal(t, u128.One, p)

	p, ok = u128.Pow2(70)
	require.True(t, ok)
	assert.Equal(t, u128.Uint128{Hi: 1 << 6}, p)

	_, ok = u128.Pow2(128)
	assert.False(t, ok)

	assert.Equal(t, u128.From64(255), u128.Mask(8))
	assert.Equal(t, u128.From64(^uint64(0)), u128.Mask(64))
	assert.Equal(t, u128.Uint128{Hi: 1, Lo: ^uint64(0)}, u128.Mask(65))
	assert.Equal(t, u128.Max, u128.Mask(128))
	assert.Equal(t, u128.Zero, u128.Mask(0))
}

// TestCmpAndBitLen orders values that differ only in one half.
func TestCmpAndBitLen(t *testing.T) {
	a := u128.Uint128{Hi: 1}
	b := u128.From64(^uint64(0))
	assert.True(t, b.Less(a))
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, 0, a.Cmp(a))
	assert.Equal(t, 65, a.BitLen())
	assert.Equal(t, 64, b.BitLen())
	assert.Equal(t, 0, u128.Zero.BitLen())
	assert.True(t, u128.From64(10).Even())
	assert.False(t, u128.From64(7).Even())
}

// TestBytes_PreservesOrder checks the big-endian key encoding sorts numerically.
func TestBytes_PreservesOrder(t *testing.T) {
	small := u128.From64(^uint64(0)).Bytes()
	large := u128.Uint128{Hi: 1}.Bytes()
	assert.Negative(t, compareBytes(small[:], large[:]))

	back, err := u128.FromBytes(large[:])
	require.NoError(t, err)
	assert.Equal(t, u128.Uint128{Hi: 1}, back)

	_, err = u128.FromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, u128.ErrBadLength)
}

// TestText_JSONFriendly ensures text marshaling uses the decimal form.
func TestText_JSONFriendly(t *testing.T) {
	txt, err := u128.Uint128{Hi: 1}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551616", string(txt))

	var v u128.Uint128
	require.NoError(t, v.UnmarshalText([]byte("9232")))
	assert.Equal(t, u128.From64(9232), v)
	assert.Error(t, v.UnmarshalText([]byte("x")))
}

// TestWide_Narrowing checks the 256-bit view and the range check on the way back.
func TestWide_Narrowing(t *testing.T) {
	w := u128.Max.Wide()
	assert.Equal(t, 128, w.BitLen())

	back, ok := u128.FromWide(&w)
	require.True(t, ok)
	assert.Equal(t, u128.Max, back)

	w.AddUint64(&w, 1)
	_, ok = u128.FromWide(&w)
	assert.False(t, ok, "2^128 needs a third limb")

	_, ok = u128.FromWide(uint256.NewInt(0).Lsh(uint256.NewInt(1), 200))
	assert.False(t, ok)
}

// TestDivModUint64_ZeroPanics matches the built-in division.
func TestDivModUint64_ZeroPanics(t *testing.T) {
	assert.Panics(t, func() { u128.One.DivModUint64(0) })
}

func compareBytes(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
