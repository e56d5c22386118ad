package object_test

import (
	"testing"
	"time"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := githash.NewSHA1()
	commitID := hasher.Sum([]byte("commit 0\x00"))
	when := time.Unix(1592615777, 0).UTC()

	tag := &object.Tag{
		Object:  commitID,
		Type:    object.TypeCommit,
		Name:    "v1.0.0",
		Tagger:  object.NewSignature("Alice", "alice@example.com", when),
		Message: "release\n",
	}

	parsed, err := object.ParseTag(tag.Bytes())
	require.NoError(t, err)
	assert.Equal(t, commitID, parsed.Object)
	assert.Equal(t, object.TypeCommit, parsed.Type)
	assert.Equal(t, "v1.0.0", parsed.Name)
	assert.Equal(t, "release\n", parsed.Message)
}

func TestBlobContent(t *testing.T) {
	t.Parallel()

	b := object.NewBlob([]byte("hello"))
	assert.Equal(t, []byte("hello"), b.Content())
	assert.Equal(t, []byte("hello"), b.Bytes())
}
