package odb

import (
	"sort"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
	"golang.org/x/xerrors"
)

// entry pairs a backend with the priority it was registered at. Higher
// priority values are consulted first, mirroring a loose-objects
// backend (cheap, authoritative for recent writes) being checked
// before a packed-objects backend (bulkier, checked second).
type entry struct {
	backend  Backend
	priority int
}

// ODB is a priority-ordered stack of backends. It never parses,
// validates, hashes, or caches anything itself: it is a routing layer
// only, matching exactly what the Repository above it expects.
type ODB struct {
	entries []entry
}

// New returns an empty ODB with no backends registered.
func New() *ODB {
	return &ODB{}
}

// AddBackend registers b at the given priority. Backends are tried in
// descending priority order on every operation. If b implements
// Bindable, BindODB is called immediately so the backend can resolve
// cross-backend references later.
func (db *ODB) AddBackend(b Backend, priority int) error {
	if bindable, ok := b.(Bindable); ok {
		if err := bindable.BindODB(db); err != nil {
			return xerrors.Errorf("could not bind backend: %w", err)
		}
	}

	db.entries = append(db.entries, entry{backend: b, priority: priority})
	sort.SliceStable(db.entries, func(i, j int) bool {
		return db.entries[i].priority > db.entries[j].priority
	})
	return nil
}

// Exists reports whether oid is present in any backend. Backends that
// implement Exister are asked directly; backends that don't, or whose
// Exists call fails, are probed with a full Read, whose result is then
// discarded.
func (db *ODB) Exists(oid githash.Oid) (bool, error) {
	for _, e := range db.entries {
		if exister, ok := e.backend.(Exister); ok {
			ok, err := exister.Exists(oid)
			if err == nil {
				if ok {
					return true, nil
				}
				continue
			}
		}
		if _, err := e.backend.Read(oid); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// ReadHeader returns the type and size of oid without reading its
// full payload when a backend supports it. Backends implementing
// HeaderReader are asked in priority order; when none of them
// succeeds, ReadHeader degrades to a full Read whose content is
// discarded.
func (db *ODB) ReadHeader(oid githash.Oid) (typ object.Type, size int64, err error) {
	for _, e := range db.entries {
		if hr, ok := e.backend.(HeaderReader); ok {
			typ, size, err := hr.ReadHeader(oid)
			if err == nil {
				return typ, size, nil
			}
		}
	}
	raw, err := db.Read(oid)
	if err != nil {
		return object.TypeBad, 0, err
	}
	return raw.Type, int64(len(raw.Content)), nil
}

// Read returns the full raw content of oid, trying each backend in
// priority order.
func (db *ODB) Read(oid githash.Oid) (object.Raw, error) {
	for _, e := range db.entries {
		raw, err := e.backend.Read(oid)
		if err == nil {
			return raw, nil
		}
	}
	return object.Raw{}, xerrors.Errorf("%s: %w", oid, ErrNotFound)
}

// Write persists raw under oid in the highest-priority backend that
// accepts writes. When a Writer fails, the next one in priority order
// is tried.
func (db *ODB) Write(oid githash.Oid, raw object.Raw) error {
	var lastErr error
	for _, e := range db.entries {
		if w, ok := e.backend.(Writer); ok {
			if err := w.Write(oid, raw); err != nil {
				lastErr = err
				continue
			}
			return nil
		}
	}
	if lastErr != nil {
		return xerrors.Errorf("could not write object %s (%v): %w", oid, lastErr, ErrReadOnly)
	}
	return ErrReadOnly
}

// Close releases resources held by every backend that implements
// Closer. It collects and returns the first error encountered, but
// still attempts to close every backend.
func (db *ODB) Close() error {
	var firstErr error
	for _, e := range db.entries {
		if c, ok := e.backend.(Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
