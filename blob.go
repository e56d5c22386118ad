package git

import "github.com/Nivl/git-go/object"

// Blob wraps an opaque byte payload with its object envelope.
type Blob struct {
	entity
	payload *object.Blob
}

// Content returns the blob's bytes.
func (b *Blob) Content() []byte {
	return b.payload.Content()
}

// SetContent replaces the blob's bytes and marks it modified.
func (b *Blob) SetContent(content []byte) {
	b.payload = object.NewBlob(content)
	b.markModified()
}

func (b *Blob) raw() object.Raw {
	return object.Raw{Type: object.TypeBlob, Content: b.payload.Bytes()}
}
