package git

import (
	"errors"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/objtable"
	"github.com/Nivl/git-go/object"
	"golang.org/x/xerrors"
)

// persistable is implemented by every object wrapper (Blob, Tree,
// Commit, Tag): it knows how to serialize itself into the canonical
// form the ODB and the hasher operate on.
type persistable interface {
	raw() object.Raw
}

// envelopeOf returns the embedded entity of obj, so the write-back
// pipeline below can update envelope state (id, inMemory, modified)
// without every wrapper type needing its own copy of this logic.
func envelopeOf(obj persistable) *entity {
	switch v := obj.(type) {
	case *Blob:
		return &v.entity
	case *Tree:
		return &v.entity
	case *Commit:
		return &v.entity
	case *Tag:
		return &v.entity
	default:
		return nil
	}
}

// Write serializes obj, hashes the result, and persists it through
// the ODB. If an object with the resulting digest is already the
// cache's canonical instance for that digest, obj is rebound to match
// that instance's envelope state instead of being inserted as a
// second, aliasing entry. The identity guarantee promises exactly
// one live wrapper per digest, and a second Write of
// already-identical content must not violate that.
func (r *Repository) Write(obj persistable) (githash.Oid, error) {
	env := envelopeOf(obj)
	if env == nil {
		return githash.Oid{}, xerrors.Errorf("unsupported object type: %w", ErrInvalidType)
	}

	if !env.modified {
		return env.id, nil
	}

	raw := obj.raw()
	id := object.Hash(r.hasher, raw)

	// unbindOld drops obj's binding under the digest of its previous
	// content, so that digest no longer resolves to the changed object.
	unbindOld := func() {
		if env.inMemory || env.id == id {
			return
		}
		if old, ok := r.cache.Get(env.id); ok && old == obj {
			r.cache.Delete(env.id)
		}
	}

	if existing, ok := r.cache.Get(id); ok && existing != obj {
		e := envelopeOf(existing.(persistable))
		unbindOld()
		env.id = id
		env.inMemory = e.inMemory
		env.modified = false
		return id, nil
	}

	if err := r.odb.Write(id, raw); err != nil {
		return githash.Oid{}, xerrors.Errorf("could not write object: %w", err)
	}

	unbindOld()
	env.id = id
	env.inMemory = false
	env.modified = false
	if err := cachePut(r, id, obj); err != nil {
		return githash.Oid{}, xerrors.Errorf("could not cache written object: %w", err)
	}
	return id, nil
}

// cachePut inserts value under id, translating the cache's internal
// capacity-overflow error into the package's public ErrOutOfMemory
// sentinel.
func cachePut(r *Repository, id githash.Oid, value interface{}) error {
	if err := r.cache.Put(id, value); err != nil {
		if errors.Is(err, objtable.ErrOutOfMemory) {
			return ErrOutOfMemory
		}
		return err
	}
	return nil
}
