package memostore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/u128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_CorruptEntries rejects malformed keys and values.
func TestLoad_CorruptEntries(t *testing.T) {
	cases := map[string]struct {
		key, val []byte
	}{
		"short key":     {key: []byte("len/abc"), val: encodeEntry(3, 2)},
		"short value":   {key: encodeKey(u128.From64(3)), val: []byte{1}},
		"length only":   {key: encodeKey(u128.From64(3)), val: encodeEntry(8, 5)[:8]},
		"zero length":   {key: encodeKey(u128.From64(3)), val: encodeEntry(0, 5)},
		"peak too low":  {key: encodeKey(u128.From64(300)), val: encodeEntry(17, 8)},
		"peak too wide": {key: encodeKey(u128.From64(3)), val: encodeEntry(8, 200)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store, err := Open(InMemoryConfig())
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
				return txn.Set(tc.key, tc.val)
			}))

			_, err = store.Load(context.Background(), collatz.NewMemo())
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

// TestKeyEncoding_SortsNumerically keeps the on-disk order meaningful.
func TestKeyEncoding_SortsNumerically(t *testing.T) {
	a := encodeKey(u128.From64(^uint64(0)))
	b := encodeKey(u128.Uint128{Hi: 1})
	assert.Less(t, string(a), string(b))
}
