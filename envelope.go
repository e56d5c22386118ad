package git

import (
	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/writebuf"
)

// entity is the typed object envelope embedded into every public
// wrapper type (Commit, Tree, Blob, Tag). It carries everything about
// an object that isn't part of its parsed payload: which repository
// owns it, its digest (once known), and whether it's been modified
// since it was looked up or created.
//
// inMemory is true for objects created with New* that have never been
// written; modified is true whenever a mutator has touched the
// payload since the last successful Write. A freshly looked-up object
// has inMemory=false, modified=false. A freshly created object has
// inMemory=true, modified=true (there's nothing to diff against, so
// it's unconditionally dirty until its first write).
type entity struct {
	repo     *Repository
	id       githash.Oid
	inMemory bool
	modified bool
	buf      *writebuf.Buffer
}

// ID returns the object's digest. For an in-memory object that has
// never been written, this is the zero Oid.
func (e *entity) ID() githash.Oid {
	return e.id
}

// InMemory reports whether the object has never been persisted.
func (e *entity) InMemory() bool {
	return e.inMemory
}

// Modified reports whether the object has unwritten changes.
func (e *entity) Modified() bool {
	return e.modified
}

func (e *entity) markModified() {
	e.modified = true
}
