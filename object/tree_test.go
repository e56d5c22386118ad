package object_test

import (
	"testing"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := githash.NewSHA1()
	blobID := hasher.Sum([]byte("blob 5\x00hello"))

	tree := object.NewTree([]object.Entry{
		{Mode: object.ModeFile, Path: "README.md", ID: blobID},
	})

	parsed, err := object.ParseTree(tree.Bytes())
	require.NoError(t, err)
	require.Len(t, parsed.Entries(), 1)
	assert.Equal(t, "README.md", parsed.Entries()[0].Path)
	assert.Equal(t, object.ModeFile, parsed.Entries()[0].Mode)
	assert.Equal(t, blobID, parsed.Entries()[0].ID)
}

func TestTreeMultipleEntries(t *testing.T) {
	t.Parallel()

	hasher := githash.NewSHA1()
	blobID := hasher.Sum([]byte("blob 5\x00hello"))
	dirID := hasher.Sum([]byte("tree 0\x00"))

	tree := object.NewTree([]object.Entry{
		{Mode: object.ModeFile, Path: "a.txt", ID: blobID},
		{Mode: object.ModeDirectory, Path: "subdir", ID: dirID},
	})

	parsed, err := object.ParseTree(tree.Bytes())
	require.NoError(t, err)
	require.Len(t, parsed.Entries(), 2)
	assert.Equal(t, "a.txt", parsed.Entries()[0].Path)
	assert.Equal(t, "subdir", parsed.Entries()[1].Path)
	assert.Equal(t, object.ModeDirectory, parsed.Entries()[1].Mode)
}

func TestParseTreeTruncated(t *testing.T) {
	t.Parallel()

	_, err := object.ParseTree([]byte("100644 a.txt\x00short"))
	assert.ErrorIs(t, err, object.ErrTreeInvalid)
}
