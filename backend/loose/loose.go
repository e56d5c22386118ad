// Package loose implements the loose-object backend: one
// zlib-compressed file per object, stored at objects/aa/bbbb... under
// a repository's object directory.
package loose

import (
	"bufio"
	"compress/zlib"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/errutil"
	"github.com/Nivl/git-go/internal/readutil"
	"github.com/Nivl/git-go/internal/syncutil"
	"github.com/Nivl/git-go/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// ErrCorrupted is returned when a loose object's header or declared
// length doesn't match its actual content.
var ErrCorrupted = errors.New("corrupted loose object")

// lockShards is the number of stripes used to serialize concurrent
// writes to the same object without serializing unrelated ones.
const lockShards = 64

// Backend is a loose-object store rooted at an object directory
// (typically .git/objects).
type Backend struct {
	fs    afero.Fs
	root  string
	locks *syncutil.NamedMutex
}

// New returns a loose backend rooted at objectsDir.
func New(fs afero.Fs, objectsDir string) *Backend {
	return &Backend{
		fs:    fs,
		root:  objectsDir,
		locks: syncutil.NewNamedMutex(lockShards),
	}
}

// path returns the on-disk location of oid: objects/aa/bbbb...
func (b *Backend) path(oid githash.Oid) string {
	hex := oid.String()
	return filepath.Join(b.root, hex[:2], hex[2:])
}

// Exists reports whether oid has a loose object file.
func (b *Backend) Exists(oid githash.Oid) (bool, error) {
	return afero.Exists(b.fs, b.path(oid))
}

// Read decodes and returns the full object stored under oid.
func (b *Backend) Read(oid githash.Oid) (raw object.Raw, err error) {
	b.locks.RLock(oid[:])
	defer b.locks.RUnlock(oid[:])

	f, err := b.fs.Open(b.path(oid))
	if err != nil {
		return object.Raw{}, xerrors.Errorf("could not open loose object %s: %w", oid, err)
	}
	defer errutil.Close(f, &err)

	zr, err := zlib.NewReader(f)
	if err != nil {
		return object.Raw{}, xerrors.Errorf("could not inflate loose object %s: %w", oid, err)
	}
	defer errutil.Close(zr, &err)

	data, err := io.ReadAll(zr)
	if err != nil {
		return object.Raw{}, xerrors.Errorf("could not read loose object %s: %w", oid, err)
	}

	return parse(data)
}

// ReadHeader decodes just enough of oid's loose object to report its
// type and size, without inflating the full payload.
func (b *Backend) ReadHeader(oid githash.Oid) (typ object.Type, size int64, err error) {
	b.locks.RLock(oid[:])
	defer b.locks.RUnlock(oid[:])

	f, err := b.fs.Open(b.path(oid))
	if err != nil {
		return object.TypeBad, 0, xerrors.Errorf("could not open loose object %s: %w", oid, err)
	}
	defer errutil.Close(f, &err)

	zr, err := zlib.NewReader(f)
	if err != nil {
		return object.TypeBad, 0, xerrors.Errorf("could not inflate loose object %s: %w", oid, err)
	}
	defer errutil.Close(zr, &err)

	// reading stops at the header's NUL terminator; only what the
	// buffered reader pulls in ahead of it (at most one buffer's worth)
	// of the payload is inflated, never the rest.
	br := bufio.NewReader(zr)
	header, err := br.ReadBytes(0)
	if err != nil {
		return object.TypeBad, 0, xerrors.Errorf("could not read header of loose object %s: %w", oid, err)
	}

	return parseHeader(header[:len(header)-1])
}

// Write persists raw's canonical form under oid.
func (b *Backend) Write(oid githash.Oid, raw object.Raw) error {
	b.locks.Lock(oid[:])
	defer b.locks.Unlock(oid[:])

	if ok, _ := b.Exists(oid); ok { //nolint:errcheck // a failed exists check just means we try to write
		return nil
	}

	path := b.path(oid)
	if err := b.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return xerrors.Errorf("could not create loose object directory: %w", err)
	}

	f, err := b.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o444)
	if err != nil {
		return xerrors.Errorf("could not create loose object file %s: %w", oid, err)
	}
	defer f.Close() //nolint:errcheck

	zw := zlib.NewWriter(f)
	if _, err := zw.Write(object.Header(raw.Type, len(raw.Content))); err != nil {
		return xerrors.Errorf("could not write loose object header %s: %w", oid, err)
	}
	if _, err := zw.Write(raw.Content); err != nil {
		return xerrors.Errorf("could not write loose object content %s: %w", oid, err)
	}
	return zw.Close()
}

// parse splits data into its header and content and validates the
// declared length against the actual content length.
func parse(data []byte) (object.Raw, error) {
	header := readutil.ReadTo(data, 0)
	if header == nil {
		return object.Raw{}, xerrors.Errorf("missing header terminator: %w", ErrCorrupted)
	}
	typ, declaredSize, err := parseHeader(header)
	if err != nil {
		return object.Raw{}, err
	}
	content := data[len(header)+1:]
	if int64(len(content)) != declaredSize {
		return object.Raw{}, xerrors.Errorf("declared size %d does not match actual size %d: %w",
			declaredSize, len(content), ErrCorrupted)
	}
	return object.Raw{Type: typ, Content: content}, nil
}

// parseHeader parses the "type size" portion of an object header
// (without its trailing NUL).
func parseHeader(header []byte) (object.Type, int64, error) {
	typeBytes := readutil.ReadTo(header, ' ')
	if typeBytes == nil {
		return object.TypeBad, 0, xerrors.Errorf("malformed header %q: %w", header, ErrCorrupted)
	}
	typ, err := object.TypeFromString(string(typeBytes))
	if err != nil {
		return object.TypeBad, 0, xerrors.Errorf("malformed header %q: %w", header, err)
	}

	sizeBytes := header[len(typeBytes)+1:]
	var size int64
	for _, c := range sizeBytes {
		if c < '0' || c > '9' {
			return object.TypeBad, 0, xerrors.Errorf("malformed header %q: %w", header, ErrCorrupted)
		}
		size = size*10 + int64(c-'0')
	}
	return typ, size, nil
}
