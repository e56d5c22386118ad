package git_test

import (
	"testing"

	git "github.com/Nivl/git-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRepositoryWithoutIndexHasNilIndex(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	initNonBareRepo(t, fs, "/repo")

	r, err := git.OpenFS(fs, "/repo/.git")
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	assert.Nil(t, r.Index())
}

func TestOpenRepositoryWithMalformedIndexHasNilIndex(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	initNonBareRepo(t, fs, "/repo")
	require.NoError(t, afero.WriteFile(fs, "/repo/.git/index", []byte("not an index"), 0o644))

	r, err := git.OpenFS(fs, "/repo/.git")
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	assert.Nil(t, r.Index())
}
