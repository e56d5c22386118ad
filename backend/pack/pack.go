package pack

import (
	"os"
	"strings"
	"sync"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/cache"
	"github.com/Nivl/git-go/object"
	"github.com/Nivl/git-go/odb"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// openPackCacheSize bounds how many *File handles stay cached at once.
// Eviction here only means "re-open the index next time", it never
// loses an object, unlike the repository's object cache. An evicted
// handle is dropped from the cache without being closed.
const openPackCacheSize = 32

// Backend is the packed-object backend: it owns every .pack/.idx pair
// found under a packs directory. It is read-only and does not
// implement odb.Writer or odb.HeaderReader. A header-only read of a
// deltified object would have to resolve the delta chain anyway, so
// the capability buys nothing.
type Backend struct {
	fs       afero.Fs
	packsDir string

	mu    sync.Mutex
	open  *cache.LRU
	paths []string

	boundODB *odb.ODB
}

// New returns a packed backend rooted at packsDir (typically
// .git/objects/pack).
func New(fs afero.Fs, packsDir string) *Backend {
	return &Backend{
		fs:       fs,
		packsDir: packsDir,
		open:     cache.NewLRU(openPackCacheSize),
	}
}

// BindODB records the ODB this backend was registered into, so a
// thin pack's REF_DELTA bases that live outside this backend's own
// packs (in another pack, or a loose object) can still be resolved.
// Rebinding to a different ODB than the one already recorded is
// rejected: a backend instance shared across two object databases
// would have no well-defined owner to resolve externals against.
func (b *Backend) BindODB(db *odb.ODB) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.boundODB != nil && b.boundODB != db {
		return xerrors.Errorf("pack backend already bound to another ODB: %w", odb.ErrBusy)
	}
	b.boundODB = db
	return nil
}

// resolveExternal looks up oid outside this backend's own packs, via
// the bound ODB. Returns ErrObjectNotFound if the backend isn't bound
// to anything yet (e.g. in tests that construct a Backend directly
// without going through odb.AddBackend).
func (b *Backend) resolveExternal(oid githash.Oid) (object.Raw, error) {
	b.mu.Lock()
	db := b.boundODB
	b.mu.Unlock()

	if db == nil {
		return object.Raw{}, xerrors.Errorf("%s: %w", oid, ErrObjectNotFound)
	}
	return db.Read(oid)
}

// discover lists every .pack file under packsDir, caching the result.
func (b *Backend) discover() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paths != nil {
		return b.paths, nil
	}

	paths, err := walkPacks(b.fs, b.packsDir)
	if err != nil {
		return nil, err
	}
	b.paths = paths
	return paths, nil
}

func walkPacks(fs afero.Fs, root string) ([]string, error) {
	exists, err := afero.DirExists(fs, root)
	if err != nil {
		return nil, xerrors.Errorf("could not check pack directory: %w", err)
	}
	if !exists {
		return nil, nil
	}

	var paths []string
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".pack") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("could not walk pack directory: %w", err)
	}
	return paths, nil
}

// fileFor opens (or returns the cached handle for) the pack at path.
func (b *Backend) fileFor(path string) (*File, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cached, ok := b.open.Get(path); ok {
		return cached.(*File), nil
	}
	f, err := Open(b.fs, path)
	if err != nil {
		return nil, err
	}
	f.external = b.resolveExternal
	b.open.Add(path, f)
	return f, nil
}

// Exists reports whether oid is present in any pack, via index lookup
// only. No object is inflated.
func (b *Backend) Exists(oid githash.Oid) (bool, error) {
	paths, err := b.discover()
	if err != nil {
		return false, err
	}
	for _, path := range paths {
		f, err := b.fileFor(path)
		if err != nil {
			continue
		}
		if f.Has(oid) {
			return true, nil
		}
	}
	return false, nil
}

// Read returns the fully resolved content of oid from whichever pack
// contains it.
func (b *Backend) Read(oid githash.Oid) (object.Raw, error) {
	paths, err := b.discover()
	if err != nil {
		return object.Raw{}, err
	}
	for _, path := range paths {
		f, err := b.fileFor(path)
		if err != nil {
			continue
		}
		if raw, err := f.Get(oid); err == nil {
			return raw, nil
		}
	}
	return object.Raw{}, xerrors.Errorf("%s: %w", oid, ErrObjectNotFound)
}

// Close closes every pack handle currently open.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for _, path := range b.paths {
		if cached, ok := b.open.Get(path); ok {
			if err := cached.(*File).Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	b.open.Clear()
	return firstErr
}
