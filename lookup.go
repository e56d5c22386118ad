package git

import (
	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
	"golang.org/x/xerrors"
)

// lookup returns the cached wrapper for id if one already exists,
// satisfying the identity guarantee: two lookups of the same digest
// always return the same pointer.
func (r *Repository) lookup(id githash.Oid) (interface{}, bool) {
	return r.cache.Get(id)
}

// LookupBlob returns the Blob stored under id, reading through the
// ODB and parsing its payload on a cache miss.
func (r *Repository) LookupBlob(id githash.Oid) (*Blob, error) {
	if v, ok := r.lookup(id); ok {
		b, ok := v.(*Blob)
		if !ok {
			return nil, xerrors.Errorf("%s: %w", id, ErrInvalidType)
		}
		return b, nil
	}

	raw, err := r.readTyped(id, object.TypeBlob)
	if err != nil {
		return nil, err
	}

	b := &Blob{
		entity:  entity{repo: r, id: id},
		payload: object.NewBlob(raw.Content),
	}
	if err := cachePut(r, id, b); err != nil {
		return nil, xerrors.Errorf("could not cache blob %s: %w", id, err)
	}
	return b, nil
}

// LookupTree returns the Tree stored under id.
func (r *Repository) LookupTree(id githash.Oid) (*Tree, error) {
	if v, ok := r.lookup(id); ok {
		t, ok := v.(*Tree)
		if !ok {
			return nil, xerrors.Errorf("%s: %w", id, ErrInvalidType)
		}
		return t, nil
	}

	raw, err := r.readTyped(id, object.TypeTree)
	if err != nil {
		return nil, err
	}

	payload, err := object.ParseTree(raw.Content)
	if err != nil {
		return nil, xerrors.Errorf("could not parse tree %s: %w", id, err)
	}

	t := &Tree{
		entity:  entity{repo: r, id: id},
		payload: payload,
	}
	if err := cachePut(r, id, t); err != nil {
		return nil, xerrors.Errorf("could not cache tree %s: %w", id, err)
	}
	return t, nil
}

// LookupCommit returns the Commit stored under id.
func (r *Repository) LookupCommit(id githash.Oid) (*Commit, error) {
	if v, ok := r.lookup(id); ok {
		c, ok := v.(*Commit)
		if !ok {
			return nil, xerrors.Errorf("%s: %w", id, ErrInvalidType)
		}
		return c, nil
	}

	raw, err := r.readTyped(id, object.TypeCommit)
	if err != nil {
		return nil, err
	}

	payload, err := object.ParseCommit(raw.Content)
	if err != nil {
		return nil, xerrors.Errorf("could not parse commit %s: %w", id, err)
	}

	c := &Commit{
		entity:  entity{repo: r, id: id},
		payload: payload,
	}
	if err := cachePut(r, id, c); err != nil {
		return nil, xerrors.Errorf("could not cache commit %s: %w", id, err)
	}
	return c, nil
}

// LookupTag returns the Tag stored under id.
func (r *Repository) LookupTag(id githash.Oid) (*Tag, error) {
	if v, ok := r.lookup(id); ok {
		t, ok := v.(*Tag)
		if !ok {
			return nil, xerrors.Errorf("%s: %w", id, ErrInvalidType)
		}
		return t, nil
	}

	raw, err := r.readTyped(id, object.TypeTag)
	if err != nil {
		return nil, err
	}

	payload, err := object.ParseTag(raw.Content)
	if err != nil {
		return nil, xerrors.Errorf("could not parse tag %s: %w", id, err)
	}

	t := &Tag{
		entity:  entity{repo: r, id: id},
		payload: payload,
	}
	if err := cachePut(r, id, t); err != nil {
		return nil, xerrors.Errorf("could not cache tag %s: %w", id, err)
	}
	return t, nil
}

// readTyped reads id from the ODB and verifies it matches want,
// surfacing a repository-level ErrInvalidType on mismatch rather than
// letting a caller silently parse the wrong payload shape.
func (r *Repository) readTyped(id githash.Oid, want object.Type) (object.Raw, error) {
	raw, err := r.odb.Read(id)
	if err != nil {
		return object.Raw{}, xerrors.Errorf("%s: %w", id, ErrNotFound)
	}
	if raw.Type != want {
		return object.Raw{}, xerrors.Errorf("%s: expected %s, got %s: %w", id, want, raw.Type, ErrInvalidType)
	}
	return raw, nil
}
