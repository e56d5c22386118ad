package git

import (
	"path/filepath"

	"github.com/Nivl/git-go/internal/env"
	"github.com/Nivl/git-go/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Layout describes the resolved on-disk paths a Repository operates
// against. Open computes it by discovery; Open2 takes it directly,
// with no discovery at all.
type Layout struct {
	GitDirPath    string
	WorkTreePath  string
	ObjectDirPath string
	IndexFilePath string
	IsBare        bool
}

// resolveLayout implements repository discovery: path is the
// repository's own git directory (not a work tree to search), and
// must directly contain HEAD and an objects directory. Bareness is
// classified from path's own basename: a directory named ".git" is
// the git directory of a non-bare repository whose work tree is its
// parent; anything else is a bare repository's git directory. It
// performs no upward directory walk: the caller is expected to point
// it at the exact git directory to inspect.
//
// $GIT_DIR and $GIT_OBJECT_DIRECTORY, when set, override the
// corresponding discovered path without changing the discovery rule
// itself. They let a caller redirect Open without touching Open2's
// explicit-Layout contract.
func resolveLayout(fs afero.Fs, path string) (Layout, error) {
	if !looksLikeGitDir(fs, path) {
		return Layout{}, xerrors.Errorf("%s: %w", path, ErrNotARepository)
	}

	layout := Layout{
		GitDirPath:    path,
		ObjectDirPath: filepath.Join(path, gitpath.ObjectsPath),
		IsBare:        true,
	}
	if filepath.Base(path) == gitpath.DotGitPath {
		layout.WorkTreePath = filepath.Dir(path)
		layout.IsBare = false
	}

	e := env.NewFromOs()
	return applyEnvOverrides(e, layout), nil
}

// applyEnvOverrides lets $GIT_DIR and $GIT_OBJECT_DIRECTORY redirect
// an already-discovered layout.
func applyEnvOverrides(e *env.Env, layout Layout) Layout {
	if dir := e.Get("GIT_DIR"); dir != "" {
		layout.GitDirPath = dir
	}
	if objDir := e.Get("GIT_OBJECT_DIRECTORY"); objDir != "" {
		layout.ObjectDirPath = objDir
	}
	return layout
}

// looksLikeGitDir reports whether path itself is a git directory:
// it must contain a HEAD file and an objects directory.
func looksLikeGitDir(fs afero.Fs, path string) bool {
	headExists, _ := afero.Exists(fs, filepath.Join(path, gitpath.HEADPath))
	objectsExist, _ := afero.DirExists(fs, filepath.Join(path, gitpath.ObjectsPath))
	return headExists && objectsExist
}
