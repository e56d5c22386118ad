package git

import (
	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
)

// NewBlob creates an in-memory blob with the given content. It has no
// digest until Write is called on it.
func (r *Repository) NewBlob(content []byte) *Blob {
	return &Blob{
		entity:  entity{repo: r, inMemory: true, modified: true},
		payload: object.NewBlob(content),
	}
}

// NewTree creates an in-memory tree from entries. It has no digest
// until Write is called on it.
func (r *Repository) NewTree(entries []object.Entry) *Tree {
	return &Tree{
		entity:  entity{repo: r, inMemory: true, modified: true},
		payload: object.NewTree(entries),
	}
}

// NewCommit creates an in-memory commit. It has no digest until Write
// is called on it.
func (r *Repository) NewCommit(tree githash.Oid, parents []githash.Oid, author, committer object.Signature, message string) *Commit {
	return &Commit{
		entity: entity{repo: r, inMemory: true, modified: true},
		payload: &object.Commit{
			Tree:      tree,
			Parents:   parents,
			Author:    author,
			Committer: committer,
			Message:   message,
		},
	}
}

// NewTag creates an in-memory annotated tag. It has no digest until
// Write is called on it.
func (r *Repository) NewTag(target githash.Oid, targetType object.Type, name string, tagger object.Signature, message string) *Tag {
	return &Tag{
		entity: entity{repo: r, inMemory: true, modified: true},
		payload: &object.Tag{
			Object:  target,
			Type:    targetType,
			Name:    name,
			Tagger:  tagger,
			Message: message,
		},
	}
}
