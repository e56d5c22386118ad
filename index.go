package git

import (
	"encoding/binary"
	"io"

	"github.com/Nivl/git-go/githash"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

const (
	indexSignature   = "DIRC"
	indexHeaderSize  = 12
	indexEntryMinLen = 62
)

// IndexEntry is one staged path in the working-directory index: a
// path, its staged blob digest, and the file mode it was staged
// under.
type IndexEntry struct {
	Path string
	Oid  githash.Oid
	Mode uint32
	Size uint32
}

// Index is a read-only view of a version-2 index file. It exists to
// let callers enumerate what's staged; it has no write support and no
// awareness of extensions (tree cache, resolve-undo) that might
// follow the entry list.
type Index struct {
	entries []IndexEntry
}

// Entries returns the index's entries, in on-disk order.
func (idx *Index) Entries() []IndexEntry {
	return idx.entries
}

// openIndex reads and parses the index file at path. A missing index
// isn't an error: a freshly initialized repository has none, so
// openIndex returns (nil, nil) in that case rather than forcing every
// caller to special-case os.IsNotExist.
func openIndex(fs afero.Fs, path string) (*Index, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil //nolint:nilerr // absent index is a valid, empty state
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, xerrors.Errorf("could not read %s: %w", path, err)
	}
	return parseIndex(data)
}

// parseIndex decodes a version-2 index: a 12-byte header, a flat
// array of fixed-plus-variable-length entries, and a trailing
// checksum this parser doesn't verify.
func parseIndex(data []byte) (*Index, error) {
	if len(data) < indexHeaderSize {
		return nil, xerrors.Errorf("index too short: %w", ErrInvalidType)
	}
	if string(data[:4]) != indexSignature {
		return nil, xerrors.Errorf("bad index signature %q: %w", data[:4], ErrInvalidType)
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != 2 {
		return nil, xerrors.Errorf("unsupported index version %d", version)
	}
	count := binary.BigEndian.Uint32(data[8:12])

	idx := &Index{entries: make([]IndexEntry, 0, count)}
	offset := indexHeaderSize
	for i := uint32(0); i < count; i++ {
		if offset+indexEntryMinLen > len(data) {
			return nil, xerrors.Errorf("truncated index entry %d: %w", i, io.ErrUnexpectedEOF)
		}
		entryStart := offset

		mode := binary.BigEndian.Uint32(data[offset+24 : offset+28])
		size := binary.BigEndian.Uint32(data[offset+36 : offset+40])
		oid, err := githash.FromBytes(data[offset+40 : offset+60])
		if err != nil {
			return nil, xerrors.Errorf("invalid oid in index entry %d: %w", i, err)
		}
		flags := binary.BigEndian.Uint16(data[offset+60 : offset+62])
		nameLen := int(flags & 0x0fff)

		nameStart := offset + indexEntryMinLen
		if nameStart+nameLen > len(data) {
			return nil, xerrors.Errorf("truncated name in index entry %d: %w", i, io.ErrUnexpectedEOF)
		}
		name := string(data[nameStart : nameStart+nameLen])

		// entries are padded with 1-8 NUL bytes so the total entry
		// length is a multiple of 8, counted from entryStart.
		entryLen := nameStart + nameLen - entryStart
		padded := ((entryLen + 8) / 8) * 8
		offset = entryStart + padded

		idx.entries = append(idx.entries, IndexEntry{
			Path: name,
			Oid:  oid,
			Mode: mode,
			Size: size,
		})
	}

	return idx, nil
}
