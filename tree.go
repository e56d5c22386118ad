package git

import "github.com/Nivl/git-go/object"

// Tree wraps a list of path-to-digest entries with its object
// envelope.
type Tree struct {
	entity
	payload *object.Tree
}

// Entries returns the tree's entries, in on-disk order.
func (t *Tree) Entries() []object.Entry {
	return t.payload.Entries()
}

// SetEntries replaces the tree's entries and marks it modified.
func (t *Tree) SetEntries(entries []object.Entry) {
	t.payload = object.NewTree(entries)
	t.markModified()
}

func (t *Tree) raw() object.Raw {
	return object.Raw{Type: object.TypeTree, Content: t.payload.Bytes()}
}
