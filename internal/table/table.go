// Package table implements the precomputed response table consumed by the
// fast path. Entries are keyed by (path hash, encoding) and populated by the
// route loader; the packet pipeline only ever reads.
package table

import (
	"fmt"
	"sync"
)

// Field capacity bounds. These mirror the wire-facing record layout and are
// enforced on insert: a record that passes Put always fits the fast path's
// scratch and body limits.
const (
	MaxBodyLen            = 4096
	MaxContentTypeLen     = 64
	MaxContentEncodingLen = 16
	MaxETagLen            = 64
	MaxCacheControlLen    = 64
	MaxLastModifiedLen    = 64

	// DefaultMaxEntries bounds the table size. There is no eviction;
	// entries persist until replaced.
	DefaultMaxEntries = 10000
)

// Encoding byte values used in Key.Encoding.
const (
	EncodingIdentity uint8 = 0
	EncodingGzip     uint8 = 1
	EncodingBrotli   uint8 = 2
	EncodingZstd     uint8 = 3
)

// Key identifies one precomputed response. Equality is structural.
type Key struct {
	PathHash uint32
	Encoding uint8
}

// Record is one precomputed response. Byte fields carry explicit lengths
// (len of the slice); they are not NUL-terminated, so binary-safe values
// such as etags are fine.
type Record struct {
	Body            []byte
	ContentType     []byte
	ContentEncoding []byte
	ETag            []byte
	CacheControl    []byte
	LastModified    []byte
}

// Validate checks the record against the capacity bounds.
func (r *Record) Validate() error {
	if len(r.Body) > MaxBodyLen {
		return fmt.Errorf("body length %d exceeds limit %d", len(r.Body), MaxBodyLen)
	}
	if len(r.ContentType) > MaxContentTypeLen {
		return fmt.Errorf("content type length %d exceeds limit %d", len(r.ContentType), MaxContentTypeLen)
	}
	if len(r.ContentEncoding) > MaxContentEncodingLen {
		return fmt.Errorf("content encoding length %d exceeds limit %d", len(r.ContentEncoding), MaxContentEncodingLen)
	}
	if len(r.ETag) > MaxETagLen {
		return fmt.Errorf("etag length %d exceeds limit %d", len(r.ETag), MaxETagLen)
	}
	if len(r.CacheControl) > MaxCacheControlLen {
		return fmt.Errorf("cache control length %d exceeds limit %d", len(r.CacheControl), MaxCacheControlLen)
	}
	if len(r.LastModified) > MaxLastModifiedLen {
		return fmt.Errorf("last modified length %d exceeds limit %d", len(r.LastModified), MaxLastModifiedLen)
	}
	return nil
}

func (r *Record) clone() *Record {
	c := &Record{
		Body:            make([]byte, len(r.Body)),
		ContentType:     make([]byte, len(r.ContentType)),
		ContentEncoding: make([]byte, len(r.ContentEncoding)),
		ETag:            make([]byte, len(r.ETag)),
		CacheControl:    make([]byte, len(r.CacheControl)),
		LastModified:    make([]byte, len(r.LastModified)),
	}
	copy(c.Body, r.Body)
	copy(c.ContentType, r.ContentType)
	copy(c.ContentEncoding, r.ContentEncoding)
	copy(c.ETag, r.ETag)
	copy(c.CacheControl, r.CacheControl)
	copy(c.LastModified, r.LastModified)
	return c
}

// Table maps Key to Record. Safe for concurrent reads interleaved with
// occasional control-plane writes. Records returned by Lookup must be
// treated as immutable.
type Table struct {
	mu         sync.RWMutex
	entries    map[Key]*Record
	maxEntries int
}

// New creates a table with the default capacity bound.
func New() *Table {
	return NewWithCapacity(DefaultMaxEntries)
}

// NewWithCapacity creates a table bounded to at most n entries.
func NewWithCapacity(n int) *Table {
	return &Table{
		entries:    make(map[Key]*Record),
		maxEntries: n,
	}
}

// Put validates and inserts a record, replacing any existing entry for the
// key. Inserting a new key past the capacity bound is rejected.
func (t *Table) Put(key Key, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record for hash %#x: %w", key.PathHash, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[key]; !exists && len(t.entries) >= t.maxEntries {
		return fmt.Errorf("table full: %d entries", t.maxEntries)
	}
	// Stored records are decoupled from caller-owned buffers so readers
	// never observe a mutation.
	t.entries[key] = rec.clone()
	return nil
}

// Lookup returns the record for key, or false on a miss.
func (t *Table) Lookup(key Key) (*Record, bool) {
	t.mu.RLock()
	rec, ok := t.entries[key]
	t.mu.RUnlock()
	return rec, ok
}

// Delete removes the entry for key if present.
func (t *Table) Delete(key Key) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

// Len returns the current entry count.
func (t *Table) Len() int {
	t.mu.RLock()
	n := len(t.entries)
	t.mu.RUnlock()
	return n
}

// Range calls f for each entry until f returns false. The table is locked
// for reading for the duration of the iteration.
func (t *Table) Range(f func(Key, *Record) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, v := range t.entries {
		if !f(k, v) {
			return
		}
	}
}
