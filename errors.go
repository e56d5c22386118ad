package git

import "errors"

// Sentinel errors surfaced by this package's public API. Wrapped
// errors returned from internal packages (odb, backend/loose,
// backend/pack, object) can be matched against these with errors.Is.
var (
	// ErrNotFound is returned when a lookup can't find the requested
	// digest in any backend.
	ErrNotFound = errors.New("object not found")
	// ErrNotARepository is returned by Open/Open2 when the resolved
	// git directory doesn't look like a repository.
	ErrNotARepository = errors.New("not a git repository")
	// ErrInvalidType is returned when a lookup's expected type doesn't
	// match the stored object's actual type.
	ErrInvalidType = errors.New("unexpected object type")
	// ErrBusy is returned when a backend is already registered against
	// a different object database and can't be added to this one.
	ErrBusy = errors.New("resource busy")
	// ErrOutOfMemory is returned when the object cache's bucket growth
	// would overflow. Go's runtime panics on allocation failure rather
	// than returning an error, so this is only reachable through the
	// one explicit capacity precondition that can be checked ahead of
	// an allocation.
	ErrOutOfMemory = errors.New("out of memory")
)
