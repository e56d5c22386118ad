// Package object implements the raw object model and the per-type
// payload parsers/serializers: commits, trees, tags and blobs. It
// knows nothing about a repository or a cache, it only turns bytes
// into typed Go values and back.
package object

import (
	"errors"
	"fmt"

	"github.com/Nivl/git-go/githash"
)

// Type identifies the kind of payload a raw object carries. The
// numbering matches the on-disk pack format, not just a convenient
// enum: TypeBad and TypeAny exist purely as sentinel/wildcard values
// for callers (TypeBad: parse failure, TypeAny: "any type accepted"
// in lookups), everything from TypeExt1 on mirrors the pack object
// type field.
type Type int8

// Object type constants, in the order the pack format expects them.
const (
	TypeBad      Type = -1
	TypeAny      Type = -2
	TypeExt1     Type = 0
	TypeCommit   Type = 1
	TypeTree     Type = 2
	TypeBlob     Type = 3
	TypeTag      Type = 4
	TypeExt2     Type = 5
	TypeOfsDelta Type = 6
	TypeRefDelta Type = 7
)

// ErrInvalidType is returned when a type name cannot be mapped to a
// known Type, or a Type has no valid name.
var ErrInvalidType = errors.New("invalid object type")

// String returns the on-disk name of t, as used in an object header.
func (t Type) String() string {
	switch t {
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	case TypeTag:
		return "tag"
	default:
		return ""
	}
}

// IsValid reports whether t is one of the loose-object types that can
// appear in an object header (commit, tree, blob, tag).
func (t Type) IsValid() bool {
	switch t {
	case TypeCommit, TypeTree, TypeBlob, TypeTag:
		return true
	default:
		return false
	}
}

// TypeFromString maps an on-disk type name back to a Type.
func TypeFromString(s string) (Type, error) {
	switch s {
	case "commit":
		return TypeCommit, nil
	case "tree":
		return TypeTree, nil
	case "blob":
		return TypeBlob, nil
	case "tag":
		return TypeTag, nil
	default:
		return TypeBad, fmt.Errorf("%q: %w", s, ErrInvalidType)
	}
}

// Raw is the content-addressed payload as it is hashed and persisted:
// a type tag, a length, and the bytes themselves. It carries no
// identity of its own: hashing it is what produces a digest.
type Raw struct {
	Type    Type
	Content []byte
}

// Header renders the canonical "<type> <length>\x00" prefix that
// precedes an object's content both when hashing it and when writing
// it to a loose object file.
func Header(typ Type, length int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", typ.String(), length))
}

// Hash computes the digest of a raw object using the canonical
// pre-image "<type_name> <decimal_length>\x00<payload>". It never
// touches storage and never mutates raw. raw.Type must be one of the
// loose-representable types (commit, tree, blob, tag); passing
// anything else is a programmer error, not a runtime condition a
// caller can recover from, so Hash panics instead of returning an
// error.
func Hash(hasher githash.Hasher, raw Raw) githash.Oid {
	if !raw.Type.IsValid() {
		panic(fmt.Sprintf("object: cannot hash non-loose type %d", raw.Type))
	}
	header := Header(raw.Type, len(raw.Content))
	return hasher.Sum(header, raw.Content)
}
