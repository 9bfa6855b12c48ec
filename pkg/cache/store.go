// Package cache persists analysis results between runs.
//
// Store is a small key-value interface with hierarchical keys, backed by
// BadgerDB on disk or by a map in memory. Frames layers a msgpack-encoded
// cache of spectral frames on top of any Store.
package cache

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("cache: not found")

// separator joins key segments. Segments must not contain it.
const separator = ':'

// Key is a hierarchical path such as Key{"frames", "v1", digest}.
type Key []string

func (k Key) String() string {
	return strings.Join(k, string(separator))
}

func (k Key) encode() []byte {
	return []byte(k.String())
}

func decodeKey(b []byte) Key {
	return Key(strings.Split(string(b), string(separator)))
}

// prefixBytes returns the encoded prefix followed by the separator so that
// "a:b" does not match "a:bc". An empty prefix matches everything.
func prefixBytes(prefix Key) []byte {
	if len(prefix) == 0 {
		return nil
	}
	return append(prefix.encode(), separator)
}

// Entry is a key-value pair returned by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns ErrNotFound if the key is not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	Set(ctx context.Context, key Key, value []byte) error

	// Delete does not fail for missing keys.
	Delete(ctx context.Context, key Key) error

	// List iterates over the entries under prefix in lexicographic key
	// order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchDelete atomically removes keys.
	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}
