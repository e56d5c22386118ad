package object

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/readutil"
)

// ErrTreeInvalid is returned when a tree's raw content cannot be
// parsed.
var ErrTreeInvalid = errors.New("invalid tree object")

// Mode is the octal file mode stored alongside each tree entry.
type Mode int32

// Recognized tree entry modes.
const (
	ModeFile       Mode = 0o100644
	ModeExecutable Mode = 0o100755
	ModeSymlink    Mode = 0o120000
	ModeDirectory  Mode = 0o040000
	ModeGitlink    Mode = 0o160000
)

// Entry is a single line of a tree: a mode, a path, and the digest of
// the object the path points to.
type Entry struct {
	Mode Mode
	Path string
	ID   githash.Oid
}

// Tree is an ordered list of entries, mapping paths to object
// digests.
type Tree struct {
	entries []Entry
}

// NewTree wraps entries into a Tree.
func NewTree(entries []Entry) *Tree {
	return &Tree{entries: entries}
}

// Entries returns the tree's entries, in on-disk order.
func (t *Tree) Entries() []Entry {
	return t.entries
}

// ParseTree parses the raw content of a tree object: a sequence of
// "{octal_mode} {path}\x00{20-byte raw digest}" records, back to back
// with no separators between records.
func ParseTree(content []byte) (*Tree, error) {
	t := &Tree{}
	for len(content) > 0 {
		modeBytes := readutil.ReadTo(content, ' ')
		if modeBytes == nil {
			return nil, fmt.Errorf("could not find entry mode: %w", ErrTreeInvalid)
		}
		content = content[len(modeBytes)+1:]

		mode, err := strconv.ParseInt(string(modeBytes), 8, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid entry mode %q: %w", modeBytes, ErrTreeInvalid)
		}

		pathBytes := readutil.ReadTo(content, 0)
		if pathBytes == nil {
			return nil, fmt.Errorf("could not find entry path: %w", ErrTreeInvalid)
		}
		content = content[len(pathBytes)+1:]

		if len(content) < githash.Size {
			return nil, fmt.Errorf("truncated entry digest: %w", ErrTreeInvalid)
		}
		id, err := githash.FromBytes(content[:githash.Size])
		if err != nil {
			return nil, fmt.Errorf("invalid entry digest: %w", ErrTreeInvalid)
		}
		content = content[githash.Size:]

		t.entries = append(t.entries, Entry{
			Mode: Mode(mode),
			Path: string(pathBytes),
			ID:   id,
		})
	}
	return t, nil
}

// Bytes serializes the tree back to its raw on-disk form.
func (t *Tree) Bytes() []byte {
	var out []byte
	for _, e := range t.entries {
		out = append(out, []byte(fmt.Sprintf("%o %s\x00", e.Mode, e.Path))...)
		out = append(out, e.ID.Bytes()...)
	}
	return out
}
