package object

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/readutil"
)

// ErrTagInvalid is returned when a tag's raw content cannot be
// parsed.
var ErrTagInvalid = errors.New("invalid tag object")

// Tag is a parsed annotated tag object.
type Tag struct {
	Object  githash.Oid
	Type    Type
	Name    string
	Tagger  Signature
	GPGSig  string
	Message string
}

// ParseTag parses the raw content of a tag object, using the same
// "key value\n" header plus blank-line-then-message shape as a
// commit.
func ParseTag(content []byte) (*Tag, error) {
	t := &Tag{}

	for len(content) > 0 {
		if content[0] == '\n' {
			content = content[1:]
			t.Message = string(content)
			return t, nil
		}

		line := readutil.ReadTo(content, '\n')
		if line == nil {
			return nil, fmt.Errorf("unterminated header line: %w", ErrTagInvalid)
		}
		content = content[len(line)+1:]

		key := readutil.ReadTo(line, ' ')
		if key == nil {
			return nil, fmt.Errorf("malformed header line %q: %w", line, ErrTagInvalid)
		}
		value := string(line[len(key)+1:])

		switch string(key) {
		case "object":
			id, err := githash.FromHex(value)
			if err != nil {
				return nil, fmt.Errorf("invalid object id %q: %w", value, ErrTagInvalid)
			}
			t.Object = id
		case "type":
			typ, err := TypeFromString(value)
			if err != nil {
				return nil, fmt.Errorf("invalid type %q: %w", value, ErrTagInvalid)
			}
			t.Type = typ
		case "tag":
			t.Name = value
		case "tagger":
			sig, err := ParseSignature(value)
			if err != nil {
				return nil, fmt.Errorf("invalid tagger %q: %w", value, err)
			}
			t.Tagger = sig
		case "gpgsig":
			end := bytes.Index(content, []byte(gpgSignatureFooter))
			if end == -1 {
				return nil, fmt.Errorf("unterminated gpgsig: %w", ErrTagInvalid)
			}
			end += len(gpgSignatureFooter)
			t.GPGSig = value + "\n" + string(content[:end])
			content = content[end:]
			if len(content) > 0 && content[0] == '\n' {
				content = content[1:]
			}
		default:
			// unknown headers are ignored, see Commit.
		}
	}
	return t, nil
}

// Bytes serializes the tag back to its raw on-disk form.
func (t *Tag) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.Object.String())
	fmt.Fprintf(&buf, "type %s\n", t.Type.String())
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s\n", t.Tagger.String())
	if t.GPGSig != "" {
		fmt.Fprintf(&buf, "gpgsig %s\n", t.GPGSig)
	}
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes()
}
