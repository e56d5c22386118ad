// Package objtable implements the typed object cache's hash table: a
// digest-keyed table that guarantees a single canonical instance per
// digest and never evicts.
package objtable

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/Nivl/git-go/githash"
)

const (
	initialBuckets = 32
	loadFactorNum  = 65
	loadFactorDen  = 100
)

// ErrOutOfMemory is returned when a rehash's bucket count would
// overflow int on the current platform. There's no allocation-failure
// signal to catch here (Go's runtime panics on that), but doubling an
// already-int-sized bucket count is a precondition this package can
// check before attempting the allocation.
var ErrOutOfMemory = errors.New("bucket growth would overflow")

type entry struct {
	key   githash.Oid
	value interface{}
	next  *entry
}

// Table is a chained hash table keyed by githash.Oid. It starts with
// 32 buckets and rehashes (doubling bucket count) once the load
// factor exceeds 0.65. It never evicts entries: once inserted, a
// value is reachable until explicitly removed, which is what lets
// callers hand out pointers from this table as long-lived canonical
// instances.
type Table struct {
	buckets []*entry
	count   int
}

// New returns an empty Table with the default initial bucket count.
func New() *Table {
	return &Table{buckets: make([]*entry, initialBuckets)}
}

// bucketFor hashes a digest to a bucket index using the first 4 bytes
// of the digest, interpreted as a little-endian uint32.
func bucketFor(key githash.Oid, numBuckets int) int {
	h := binary.LittleEndian.Uint32(key[:4])
	return int(h) % numBuckets
}

// Get looks up the value stored under key.
func (t *Table) Get(key githash.Oid) (interface{}, bool) {
	idx := bucketFor(key, len(t.buckets))
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// Put inserts or replaces the value stored under key.
func (t *Table) Put(key githash.Oid, value interface{}) error {
	idx := bucketFor(key, len(t.buckets))
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			e.value = value
			return nil
		}
	}

	t.buckets[idx] = &entry{key: key, value: value, next: t.buckets[idx]}
	t.count++

	threshold := (loadFactorNum*len(t.buckets) + loadFactorDen - 1) / loadFactorDen
	if t.count >= threshold {
		return t.rehash()
	}
	return nil
}

// Delete removes the value stored under key, if any.
func (t *Table) Delete(key githash.Oid) {
	idx := bucketFor(key, len(t.buckets))
	var prev *entry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.count--
			return
		}
		prev = e
	}
}

// Len returns the number of entries currently stored.
func (t *Table) Len() int {
	return t.count
}

// Buckets returns the current number of buckets. Exposed for tests
// that need to assert on rehash behavior.
func (t *Table) Buckets() int {
	return len(t.buckets)
}

func (t *Table) rehash() error {
	if len(t.buckets) > math.MaxInt/2 {
		return ErrOutOfMemory
	}

	newBuckets := make([]*entry, len(t.buckets)*2)
	for _, head := range t.buckets {
		for e := head; e != nil; {
			next := e.next
			idx := bucketFor(e.key, len(newBuckets))
			e.next = newBuckets[idx]
			newBuckets[idx] = e
			e = next
		}
	}
	t.buckets = newBuckets
	return nil
}
