package git

import (
	"errors"
	"path/filepath"

	"github.com/Nivl/git-go/backend/loose"
	"github.com/Nivl/git-go/backend/pack"
	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/gitpath"
	"github.com/Nivl/git-go/internal/objtable"
	"github.com/Nivl/git-go/odb"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Default backend priorities: higher values are consulted first.
// Loose objects are checked first (cheap, authoritative for anything
// written since the last repack), packed objects second.
const (
	priorityPack  = 1
	priorityLoose = 2
)

// Repository ties together a resolved on-disk layout, a pluggable
// object database, and the typed object cache that guarantees a
// single canonical in-memory instance per digest. None of the three
// are safe for concurrent use from multiple goroutines without
// external synchronization. This mirrors the database/cache
// contracts they're built from.
type Repository struct {
	layout Layout
	fs     afero.Fs
	hasher githash.Hasher
	odb    *odb.ODB
	cache  *objtable.Table
	index  *Index
	config *Config
}

// Open discovers a repository at path, where path is the repository's
// own git directory (e.g. "/work/project/.git" for a non-bare
// checkout, or "/srv/project.git" for a bare one). Bareness is
// classified from path's basename, not from the presence of a work
// tree above it.
func Open(path string) (*Repository, error) {
	return OpenFS(afero.NewOsFs(), path)
}

// OpenFS is Open parameterized by filesystem, for testing against
// afero.NewMemMapFs().
func OpenFS(fs afero.Fs, path string) (*Repository, error) {
	layout, err := resolveLayout(fs, path)
	if err != nil {
		return nil, err
	}
	return newRepository(fs, layout)
}

// Open2 builds a Repository from an explicit Layout, performing no
// discovery at all. git_dir must already exist and be a directory.
// object_directory defaults to <git_dir>/objects and must be a
// directory. index_file defaults to <git_dir>/index and must exist.
// Any violated precondition is reported as ErrNotARepository. A Layout
// with no WorkTreePath is bare, regardless of whatever IsBare the
// caller passed in.
func Open2(fs afero.Fs, layout Layout) (*Repository, error) {
	if exists, _ := afero.DirExists(fs, layout.GitDirPath); !exists {
		return nil, xerrors.Errorf("%s: %w", layout.GitDirPath, ErrNotARepository)
	}

	if layout.ObjectDirPath == "" {
		layout.ObjectDirPath = filepath.Join(layout.GitDirPath, gitpath.ObjectsPath)
	}
	if isDir, _ := afero.DirExists(fs, layout.ObjectDirPath); !isDir {
		return nil, xerrors.Errorf("%s: %w", layout.ObjectDirPath, ErrNotARepository)
	}

	if layout.IndexFilePath == "" {
		layout.IndexFilePath = filepath.Join(layout.GitDirPath, "index")
	}
	if exists, _ := afero.Exists(fs, layout.IndexFilePath); !exists {
		return nil, xerrors.Errorf("%s: %w", layout.IndexFilePath, ErrNotARepository)
	}

	layout.IsBare = layout.WorkTreePath == ""

	return newRepository(fs, layout)
}

// addBackend registers b with db, translating the ODB package's own
// ErrBusy sentinel into this package's public one.
func addBackend(db *odb.ODB, b odb.Backend, priority int) error {
	if err := db.AddBackend(b, priority); err != nil {
		if errors.Is(err, odb.ErrBusy) {
			return xerrors.Errorf("%w", ErrBusy)
		}
		return err
	}
	return nil
}

// newRepository wires the default ODB composition: a loose backend
// over the object directory, and a packed backend over its pack
// subdirectory, in that priority order.
func newRepository(fs afero.Fs, layout Layout) (*Repository, error) {
	db := odb.New()
	looseBackend := loose.New(fs, layout.ObjectDirPath)
	if err := addBackend(db, looseBackend, priorityLoose); err != nil {
		return nil, xerrors.Errorf("could not register loose backend: %w", err)
	}
	packBackend := pack.New(fs, filepath.Join(layout.ObjectDirPath, "pack"))
	if err := addBackend(db, packBackend, priorityPack); err != nil {
		return nil, xerrors.Errorf("could not register pack backend: %w", err)
	}

	indexPath := layout.IndexFilePath
	if indexPath == "" {
		indexPath = filepath.Join(layout.GitDirPath, "index")
	}
	idx, err := openIndex(fs, indexPath)
	if err != nil {
		idx = nil
	}

	cfg, err := loadConfig(fs, layout.GitDirPath)
	if err != nil {
		return nil, xerrors.Errorf("could not load config: %w", err)
	}
	if bare, isSet := cfg.IsBareOverride(); isSet {
		layout.IsBare = bare
	}

	return &Repository{
		layout: layout,
		fs:     fs,
		hasher: githash.NewSHA1(),
		odb:    db,
		cache:  objtable.New(),
		index:  idx,
		config: cfg,
	}, nil
}

// Index returns the repository's parsed index, or nil if it has none
// (a freshly initialized or bare repository typically doesn't) or if
// it could not be read or parsed. The index is read once, when the
// repository is opened.
func (r *Repository) Index() *Index {
	return r.index
}

// Config returns the repository's local configuration, or nil if it
// has none.
func (r *Repository) Config() *Config {
	return r.config
}

// IsBare reports whether the repository has no working tree.
func (r *Repository) IsBare() bool {
	return r.layout.IsBare
}

// GitDirPath returns the resolved path to the repository's git
// directory.
func (r *Repository) GitDirPath() string {
	return r.layout.GitDirPath
}

// WorkTreePath returns the resolved path to the repository's working
// tree, or an empty string for a bare repository.
func (r *Repository) WorkTreePath() string {
	return r.layout.WorkTreePath
}

// Close releases every resource held by the repository's backends.
func (r *Repository) Close() error {
	return r.odb.Close()
}
