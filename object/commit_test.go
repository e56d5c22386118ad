package object_test

import (
	"testing"
	"time"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := githash.NewSHA1()
	treeID := hasher.Sum([]byte("tree 0\x00"))
	parentID := hasher.Sum([]byte("commit 0\x00"))

	when := time.Date(2020, 6, 19, 18, 16, 17, 0, time.FixedZone("", -7*3600))
	c := &object.Commit{
		Tree:      treeID,
		Parents:   []githash.Oid{parentID},
		Author:    object.NewSignature("Alice", "alice@example.com", when),
		Committer: object.NewSignature("Alice", "alice@example.com", when),
		Message:   "Initial commit\n",
	}

	parsed, err := object.ParseCommit(c.Bytes())
	require.NoError(t, err)
	assert.Equal(t, treeID, parsed.Tree)
	assert.Equal(t, []githash.Oid{parentID}, parsed.Parents)
	assert.Equal(t, "Alice", parsed.Author.Name)
	assert.Equal(t, "alice@example.com", parsed.Author.Email)
	assert.Equal(t, "Initial commit\n", parsed.Message)
}

func TestCommitNoParents(t *testing.T) {
	t.Parallel()

	hasher := githash.NewSHA1()
	treeID := hasher.Sum([]byte("tree 0\x00"))
	when := time.Unix(1592615777, 0).UTC()

	c := &object.Commit{
		Tree:      treeID,
		Author:    object.NewSignature("Bob", "bob@example.com", when),
		Committer: object.NewSignature("Bob", "bob@example.com", when),
		Message:   "root\n",
	}

	parsed, err := object.ParseCommit(c.Bytes())
	require.NoError(t, err)
	assert.Empty(t, parsed.Parents)
}

func TestCommitWithGPGSig(t *testing.T) {
	t.Parallel()

	raw := "tree " + githash.NullOid.String() + "\n" +
		"author A <a@example.com> 1592615777 +0000\n" +
		"committer A <a@example.com> 1592615777 +0000\n" +
		"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
		"\n" +
		"abcd\n" +
		"-----END PGP SIGNATURE-----\n" +
		"\n" +
		"signed commit\n"

	parsed, err := object.ParseCommit([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, parsed.GPGSig, "BEGIN PGP SIGNATURE")
	assert.Equal(t, "signed commit\n", parsed.Message)
}

func TestParseCommitMalformed(t *testing.T) {
	t.Parallel()

	_, err := object.ParseCommit([]byte("not-a-header-line-at-all"))
	assert.Error(t, err)
}
