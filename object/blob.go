package object

// Blob is the simplest payload: an opaque byte slice, with no parsing
// performed on it at all.
type Blob struct {
	content []byte
}

// NewBlob wraps content into a Blob.
func NewBlob(content []byte) *Blob {
	return &Blob{content: content}
}

// Content returns the blob's raw bytes.
func (b *Blob) Content() []byte {
	return b.content
}

// Bytes serializes the blob back to its raw form, which for a blob is
// just its content.
func (b *Blob) Bytes() []byte {
	return b.content
}
