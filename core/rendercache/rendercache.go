// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package rendercache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
for rendered markup.

Entries are keyed by a BLAKE3 digest of the output kind and the source text (see [Key]),
so a cache never holds the untrusted input itself. When created with compression enabled
via [New], rendered output is stored zstd-compressed whenever that is smaller and is
transparently decompressed by [Cache.Get].
*/
package rendercache

import (
	"container/list"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Kind distinguishes the outputs that can be cached for one source.
type Kind byte

const (
	KindHTML  Kind = 'h'
	KindPlain Kind = 't'
)

// Key derives the cache key for the kind of output rendered from source.
func Key(kind Kind, source string) string {
	hasher := blake3.New()

	_, _ = hasher.Write([]byte{byte(kind), ':'})
	_, _ = hasher.Write([]byte(source))

	return string(kind) + ":" + hex.EncodeToString(hasher.Sum(nil))
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Cache is a fixed-capacity, least-recently-used cache of rendered strings that is safe
// for concurrent use. Instances must be constructed with [New]; the zero value is not
// ready for use.
type Cache struct {
	size      int                      // Maximum number of entries
	evictList *list.List               // Front is the most recently used entry
	items     map[string]*list.Element // Maps keys to their list elements
	lock      sync.Mutex
	zstdEnc   *zstd.Encoder // nil when compression is disabled
	zstdDec   *zstd.Decoder

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// entry holds one rendered value, either as-is or zstd-compressed.
type entry struct {
	key        string
	plain      string
	compressed []byte
}

// New creates a cache holding at most size entries.
//
// If compress is true, values are stored compressed when this reduces space.
// It returns [ErrInvalidSize] if size is not a positive integer.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element, size),
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Add stores value under key, making it the most recently used entry.
//
// If the cache is over capacity afterwards, the least recently used entry is evicted.
// Add reports whether an eviction occurred.
func (c *Cache) Add(key, value string) bool {
	// Compress before taking the lock; EncodeAll is safe for concurrent use.
	stored := c.prepare(key, value)

	c.lock.Lock()
	defer c.lock.Unlock()

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)
		el.Value = stored

		return false
	}

	c.items[key] = c.evictList.PushFront(stored)

	if c.evictList.Len() <= c.size {
		return false
	}

	if oldest := c.evictList.Back(); oldest != nil {
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key) //nolint:forcetypeassert // only *entry is stored
		c.evictions.Add(1)
	}

	return true
}

// Get returns the value for key and marks it as most recently used.
//
// The second result reports whether the key was found. A value whose
// decompression fails is treated as missing and dropped.
func (c *Cache) Get(key string) (string, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.lock.Unlock()
		c.misses.Add(1)

		return "", false
	}

	c.evictList.MoveToFront(el)
	stored := el.Value.(*entry) //nolint:forcetypeassert // only *entry is stored

	c.lock.Unlock()

	if stored.compressed == nil {
		c.hits.Add(1)

		return stored.plain, true
	}

	decoded, err := c.zstdDec.DecodeAll(stored.compressed, nil)
	if err != nil {
		c.Remove(key)
		c.misses.Add(1)

		return "", false
	}

	c.hits.Add(1)

	return string(decoded), true
}

// Remove deletes key from the cache and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}

	c.evictList.Remove(el)
	delete(c.items, key)

	return true
}

// Keys returns all keys from the least to the most recently used.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.evictList.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key) //nolint:forcetypeassert // only *entry is stored
	}

	return keys
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *Cache) prepare(key, value string) *entry {
	if c.zstdEnc != nil && value != "" {
		if packed := c.zstdEnc.EncodeAll([]byte(value), nil); len(packed) < len(value) {
			return &entry{key: key, compressed: packed}
		}
	}

	return &entry{key: key, plain: value}
}
