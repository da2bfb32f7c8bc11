// Package memostore persists a collatz.Memo in BadgerDB so that resolved
// path lengths survive between process runs.
//
// Layout
//
//	key   = "len/" + 16-byte big-endian value (sorts numerically)
//	value = 8-byte big-endian path length + 1-byte peak bit width
//
// The peak width lets a reloaded memo keep reporting overflow for queries
// narrower than the trajectories it holds.
//
// Path lengths are properties of a value alone, so entries never go stale
// and Save only ever adds or rewrites identical data.
package memostore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/u128"
)

// Sentinel errors.
var (
	// ErrNoPath is returned by Open when a persistent store has no directory.
	ErrNoPath = errors.New("memostore: path is required for a persistent store")

	// ErrCorrupt is returned when a stored key or value cannot be decoded.
	ErrCorrupt = errors.New("memostore: corrupt entry")
)

var keyPrefix = []byte("len/")

// Config holds configuration for a Store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every batch.
	SyncWrites bool

	// Logger receives BadgerDB's internal logs. nil disables them.
	Logger *slog.Logger
}

// DefaultConfig returns a durable configuration for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a BadgerDB-backed memo archive. It is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) a store.
//
// Errors: ErrNoPath, or a wrapped BadgerDB/filesystem error.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrNoPath
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("memostore: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("memostore: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load records every stored entry into memo and returns how many entries
// were new to it.
func (s *Store) Load(ctx context.Context, memo *collatz.Memo) (int, error) {
	added := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			v, err := decodeKey(item.Key())
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				length, peakBits, err := decodeEntry(v, val)
				if err != nil {
					return err
				}
				if memo.Record(v, length, peakBits) {
					added++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("memostore: load: %w", err)
	}
	return added, nil
}

// Save writes every memo entry in one batch and returns the number written.
func (s *Store) Save(ctx context.Context, memo *collatz.Memo) (int, error) {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	var (
		written int
		err     error
	)
	memo.Range(func(v u128.Uint128, length, peakBits int) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if err = wb.Set(encodeKey(v), encodeEntry(length, peakBits)); err != nil {
			return false
		}
		written++
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("memostore: save: %w", err)
	}
	if err = wb.Flush(); err != nil {
		return 0, fmt.Errorf("memostore: flush: %w", err)
	}
	return written, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("memostore: count: %w", err)
	}
	return n, nil
}

func encodeKey(v u128.Uint128) []byte {
	b := v.Bytes()
	key := make([]byte, 0, len(keyPrefix)+len(b))
	key = append(key, keyPrefix...)
	return append(key, b[:]...)
}

func decodeKey(key []byte) (u128.Uint128, error) {
	if len(key) != len(keyPrefix)+16 {
		return u128.Zero, fmt.Errorf("%w: key of %d bytes", ErrCorrupt, len(key))
	}
	return u128.FromBytes(key[len(keyPrefix):])
}

// encodeEntry packs the path length (8 bytes, big-endian) and the peak bit
// width of the trajectory (1 byte).
func encodeEntry(length, peakBits int) []byte {
	var b [9]byte
	binary.BigEndian.PutUint64(b[:8], uint64(length))
	b[8] = byte(peakBits)
	return b[:]
}

func decodeEntry(v u128.Uint128, val []byte) (length, peakBits int, err error) {
	if len(val) != 9 {
		return 0, 0, fmt.Errorf("%w: value of %d bytes", ErrCorrupt, len(val))
	}
	l := binary.BigEndian.Uint64(val[:8])
	if l == 0 || l > uint64(^uint32(0)) {
		return 0, 0, fmt.Errorf("%w: length %d", ErrCorrupt, l)
	}
	peak := int(val[8])
	if peak < v.BitLen() || peak > 128 {
		return 0, 0, fmt.Errorf("%w: peak width %d for %s", ErrCorrupt, peak, v)
	}
	return int(l), peak, nil
}
