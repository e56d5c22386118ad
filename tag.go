package git

import "github.com/Nivl/git-go/object"

// Tag wraps a parsed annotated-tag payload with its object envelope.
type Tag struct {
	entity
	payload *object.Tag
}

// Name returns the tag's name.
func (t *Tag) Name() string {
	return t.payload.Name
}

// Message returns the tag's free-form message.
func (t *Tag) Message() string {
	return t.payload.Message
}

func (t *Tag) raw() object.Raw {
	return object.Raw{Type: object.TypeTag, Content: t.payload.Bytes()}
}
