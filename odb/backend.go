// Package odb implements the pluggable, priority-ordered object
// database: a stack of storage backends presenting one unified
// Exists/Read/ReadHeader/Write surface. The ODB itself never parses,
// validates, hashes, or caches a payload, it only routes bytes to
// and from whichever backend owns them.
package odb

import (
	"errors"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
)

// ErrNotFound is returned when no backend has the requested object.
var ErrNotFound = errors.New("object not found")

// ErrReadOnly is returned from Write when no backend in the stack
// accepts writes: none implements Writer, or every one that does
// failed.
var ErrReadOnly = errors.New("no writable backend available")

// ErrBusy is returned by AddBackend when a Bindable backend is
// already bound to a different ODB.
var ErrBusy = errors.New("backend already bound to another object database")

// Backend is the mandatory capability every storage backend provides:
// the ability to fetch an object's full raw content by digest.
// Everything else (Exists, ReadHeader, Write, Close, binding to the
// owning ODB) is optional and detected with a type assertion, Go's
// idiomatic stand-in for the nullable function pointers a C backend
// vtable would use.
type Backend interface {
	Read(oid githash.Oid) (object.Raw, error)
}

// Exister is implemented by backends that can answer existence checks
// without paying for a full read (e.g. an index lookup).
type Exister interface {
	Exists(oid githash.Oid) (bool, error)
}

// HeaderReader is implemented by backends that can report an
// object's type and size without decoding its full payload.
type HeaderReader interface {
	ReadHeader(oid githash.Oid) (typ object.Type, size int64, err error)
}

// Writer is implemented by backends that accept new objects. The
// caller has already computed oid and serialized raw. The backend
// only persists it.
type Writer interface {
	Write(oid githash.Oid, raw object.Raw) error
}

// Closer is implemented by backends that hold resources (open file
// handles, caches) that need releasing.
type Closer interface {
	Close() error
}

// Bindable is implemented by backends that need a reference back to
// the owning ODB, for example to look up a delta base object stored
// in a different backend than the one resolving it.
type Bindable interface {
	BindODB(db *ODB) error
}
