package git

import (
	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
)

// Commit wraps a parsed commit payload with its object envelope.
type Commit struct {
	entity
	payload *object.Commit
}

// TreeID returns the digest of the commit's root tree.
func (c *Commit) TreeID() githash.Oid {
	return c.payload.Tree
}

// Parents returns the digests of the commit's parent commits.
func (c *Commit) Parents() []githash.Oid {
	return c.payload.Parents
}

// Message returns the commit's free-form message.
func (c *Commit) Message() string {
	return c.payload.Message
}

// SetMessage replaces the commit's message and marks it modified.
func (c *Commit) SetMessage(msg string) {
	c.payload.Message = msg
	c.markModified()
}

func (c *Commit) raw() object.Raw {
	return object.Raw{Type: object.TypeCommit, Content: c.payload.Bytes()}
}
