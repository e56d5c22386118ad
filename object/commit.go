package object

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/readutil"
)

// ErrCommitInvalid is returned when a commit's raw content cannot be
// parsed.
var ErrCommitInvalid = errors.New("invalid commit object")

const gpgSignatureFooter = "-----END PGP SIGNATURE-----\n"

// Commit is a parsed commit object: a root tree, zero or more
// parents, an author and committer, an optional PGP signature, and a
// free-form message.
type Commit struct {
	Tree      githash.Oid
	Parents   []githash.Oid
	Author    Signature
	Committer Signature
	GPGSig    string
	Message   string
}

// ParseCommit parses the raw content of a commit object: a sequence
// of "key value\n" header lines, terminated by a blank line, followed
// by the commit message.
func ParseCommit(content []byte) (*Commit, error) {
	c := &Commit{}

	for len(content) > 0 {
		if content[0] == '\n' {
			content = content[1:]
			c.Message = string(content)
			return c, nil
		}

		line := readutil.ReadTo(content, '\n')
		if line == nil {
			return nil, fmt.Errorf("unterminated header line: %w", ErrCommitInvalid)
		}
		content = content[len(line)+1:]

		key := readutil.ReadTo(line, ' ')
		if key == nil {
			return nil, fmt.Errorf("malformed header line %q: %w", line, ErrCommitInvalid)
		}
		value := string(line[len(key)+1:])

		switch string(key) {
		case "tree":
			id, err := githash.FromHex(value)
			if err != nil {
				return nil, fmt.Errorf("invalid tree id %q: %w", value, ErrCommitInvalid)
			}
			c.Tree = id
		case "parent":
			id, err := githash.FromHex(value)
			if err != nil {
				return nil, fmt.Errorf("invalid parent id %q: %w", value, ErrCommitInvalid)
			}
			c.Parents = append(c.Parents, id)
		case "author":
			sig, err := ParseSignature(value)
			if err != nil {
				return nil, fmt.Errorf("invalid author %q: %w", value, err)
			}
			c.Author = sig
		case "committer":
			sig, err := ParseSignature(value)
			if err != nil {
				return nil, fmt.Errorf("invalid committer %q: %w", value, err)
			}
			c.Committer = sig
		case "gpgsig":
			end := bytes.Index(content, []byte(gpgSignatureFooter))
			if end == -1 {
				return nil, fmt.Errorf("unterminated gpgsig: %w", ErrCommitInvalid)
			}
			end += len(gpgSignatureFooter)
			c.GPGSig = value + "\n" + string(content[:end])
			content = content[end:]
		default:
			// unknown headers are ignored: they are not kept on the
			// Commit, so Bytes does not write them back.
		}
	}
	return c, nil
}

// Bytes serializes the commit back to its raw on-disk form.
func (c *Commit) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree.String())
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p.String())
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author.String())
	fmt.Fprintf(&buf, "committer %s\n", c.Committer.String())
	if c.GPGSig != "" {
		fmt.Fprintf(&buf, "gpgsig %s", c.GPGSig)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}
