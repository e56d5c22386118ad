// Package pack implements the packed-object backend: a single .pack
// file holding many zlib-compressed, optionally delta-encoded
// objects, alongside a .idx file mapping digests to byte offsets.
package pack

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/errutil"
	"github.com/Nivl/git-go/object"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

const packfileHeaderSize = 12

var packfileMagic = []byte{'P', 'A', 'C', 'K'}
var packfileVersion = []byte{0, 0, 0, 2}

// Sentinel errors surfaced while parsing a pack or its index.
var (
	ErrIntOverflow    = errors.New("integer overflow while parsing pack data")
	ErrInvalidMagic   = errors.New("invalid pack magic")
	ErrInvalidVersion = errors.New("unsupported pack version")
	ErrObjectNotFound = errors.New("object not found in pack")
)

// File represents one opened .pack/.idx pair.
type File struct {
	mu sync.Mutex

	fs     afero.Fs
	r      afero.File
	idx    *index
	header [packfileHeaderSize]byte

	// external resolves a REF_DELTA base that isn't present in this
	// pack's own index, the way a thin pack's trailing objects
	// reference bases that live in another pack or as a loose object.
	// Set by the owning Backend; nil when a File is opened directly in
	// tests, in which case an unresolvable base just surfaces as a
	// not-found error instead of being resolved externally.
	external func(oid githash.Oid) (object.Raw, error)
}

// Open opens the pack file at packPath and its matching .idx
// companion (same path with its extension swapped), validating the
// pack header's magic and version.
func Open(fs afero.Fs, packPath string) (*File, error) {
	r, err := fs.Open(packPath)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not open packfile")
	}

	p := &File{fs: fs, r: r}
	if _, err := r.ReadAt(p.header[:], 0); err != nil {
		return nil, pkgerrors.Wrap(err, "could not read packfile header")
	}
	if !bytes.Equal(p.header[:4], packfileMagic) {
		return nil, pkgerrors.Wrap(ErrInvalidMagic, "invalid packfile header")
	}
	if !bytes.Equal(p.header[4:8], packfileVersion) {
		return nil, pkgerrors.Wrap(ErrInvalidVersion, "unsupported packfile version")
	}

	idxPath := strings.TrimSuffix(packPath, filepath.Ext(packPath)) + ".idx"
	idxFile, err := fs.Open(idxPath)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not open index file")
	}
	defer idxFile.Close() //nolint:errcheck

	idx, err := newIndex(idxFile)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not parse index file")
	}
	p.idx = idx

	return p, nil
}

// Close releases the open pack file handle.
func (p *File) Close() error {
	return p.r.Close()
}

// Has reports whether oid is present in this pack, without inflating
// anything.
func (p *File) Has(oid githash.Oid) bool {
	_, err := p.idx.offsetOf(oid)
	return err == nil
}

// Get resolves oid to its full, delta-decoded content.
func (p *File) Get(oid githash.Oid) (object.Raw, error) {
	offset, err := p.idx.offsetOf(oid)
	if err != nil {
		return object.Raw{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolve(int64(offset))
}

// rawHeader is the variable-length type+size metadata preceding a
// compressed object's payload.
type rawHeader struct {
	typ           object.Type
	declaredSize  int64
	headerLen     int64
	deltaBaseOid  githash.Oid
	deltaBaseOfs  int64
	isOfsDelta    bool
	isRefDelta    bool
}

// readObjectHeader decodes the variable-length type+size header at
// offset, using the pack format's MSB-continuation byte encoding: the
// first byte packs a continuation bit, a 3-bit type, and the low 4
// bits of the size; each following byte (while the continuation bit
// is set) contributes 7 more size bits, least-significant chunk
// first.
func (p *File) readObjectHeader(offset int64) (rawHeader, error) {
	buf := make([]byte, 32)
	n, err := p.r.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return rawHeader{}, pkgerrors.Wrap(err, "could not read object header")
	}
	buf = buf[:n]

	if len(buf) == 0 {
		return rawHeader{}, pkgerrors.Wrap(io.ErrUnexpectedEOF, "empty object header")
	}

	first := buf[0]
	typ := object.Type((first >> 4) & 0x7)
	size := int64(first & 0x0f)
	shift := uint(4)
	i := 1
	for isMSBSet(first) && i < len(buf) {
		b := buf[i]
		size = insertLittleEndian7(size, b, shift)
		shift += 7
		first = b
		i++
		if !isMSBSet(b) {
			break
		}
	}

	h := rawHeader{typ: typ, declaredSize: size}

	switch typ {
	case object.TypeOfsDelta:
		h.isOfsDelta = true
		ofs, n2, err := readDeltaOffset(buf[i:])
		if err != nil {
			return rawHeader{}, err
		}
		h.deltaBaseOfs = offset - ofs
		i += n2
	case object.TypeRefDelta:
		h.isRefDelta = true
		if i+githash.Size > len(buf) {
			return rawHeader{}, pkgerrors.Wrap(io.ErrUnexpectedEOF, "truncated ref-delta base")
		}
		base, err := githash.FromBytes(buf[i : i+githash.Size])
		if err != nil {
			return rawHeader{}, err
		}
		h.deltaBaseOid = base
		i += githash.Size
	}

	h.headerLen = int64(i)
	return h, nil
}

// isMSBSet reports whether the most significant bit of b is set.
func isMSBSet(b byte) bool {
	return b&0x80 != 0
}

// unsetMSB clears the most significant bit of b.
func unsetMSB(b byte) byte {
	return b & 0x7f
}

// insertLittleEndian7 folds 7 new bits (from b, MSB cleared) into
// size at the given bit shift.
func insertLittleEndian7(size int64, b byte, shift uint) int64 {
	return size | int64(unsetMSB(b))<<shift
}

// insertBigEndian7 folds 7 new bits (from b, MSB cleared) into offset,
// shifting the accumulated value left by 7 and adding the new chunk.
// Used for the big-endian, "+1 per continuation byte" OFS_DELTA offset
// encoding.
func insertBigEndian7(offset int64, b byte) int64 {
	return (offset << 7) | int64(unsetMSB(b))
}

// readDeltaOffset decodes an OFS_DELTA base offset: a big-endian
// base-128 varint where every continuation byte after the first
// implicitly adds 1 to keep the encoding minimal (no unnecessary
// leading zero chunks).
func readDeltaOffset(buf []byte) (offset int64, consumed int, err error) {
	if len(buf) == 0 {
		return 0, 0, pkgerrors.Wrap(io.ErrUnexpectedEOF, "empty delta offset")
	}
	b := buf[0]
	offset = int64(unsetMSB(b))
	i := 1
	for isMSBSet(b) {
		if i >= len(buf) {
			return 0, 0, pkgerrors.Wrap(io.ErrUnexpectedEOF, "truncated delta offset")
		}
		b = buf[i]
		offset++
		offset = insertBigEndian7(offset, b)
		i++
	}
	return offset, i, nil
}

// readSize decodes one of a delta instruction stream's leading
// little-endian base-128 varints (source size, target size).
func readSize(r *bytes.Reader) (int64, error) {
	var size int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		size |= int64(unsetMSB(b)) << shift
		if !isMSBSet(b) {
			return size, nil
		}
		shift += 7
	}
}

// resolve fetches and fully resolves the object stored at offset,
// following delta chains (OFS_DELTA/REF_DELTA) as needed. The caller
// must already hold p.mu: resolve recurses directly into itself for a
// delta base instead of re-entering through Get, which would
// deadlock against File's non-reentrant mutex.
func (p *File) resolve(offset int64) (raw object.Raw, err error) {
	header, err := p.readObjectHeader(offset)
	if err != nil {
		return object.Raw{}, err
	}

	zr, err := zlib.NewReader(&offsetReader{p: p, offset: offset + header.headerLen})
	if err != nil {
		return object.Raw{}, pkgerrors.Wrap(err, "could not inflate packed object")
	}
	defer errutil.Close(zr, &err)

	payload, err := io.ReadAll(io.LimitReader(zr, header.declaredSize+1<<20))
	if err != nil {
		return object.Raw{}, pkgerrors.Wrap(err, "could not read packed object payload")
	}

	if !header.isOfsDelta && !header.isRefDelta {
		return object.Raw{Type: header.typ, Content: payload}, nil
	}

	var base object.Raw
	if header.isRefDelta {
		baseOffset, oErr := p.idx.offsetOf(header.deltaBaseOid)
		switch {
		case oErr == nil:
			base, err = p.resolve(int64(baseOffset))
		case p.external != nil:
			// external may round-trip through the owning Backend
			// and back into this same File (another thin pack
			// cross-referencing this one); release the lock for
			// the duration of that call so such a round-trip can't
			// deadlock against the lock resolve's caller holds.
			p.mu.Unlock()
			base, err = p.external(header.deltaBaseOid)
			p.mu.Lock()
		default:
			return object.Raw{}, pkgerrors.Wrap(oErr, "could not resolve ref-delta base")
		}
	} else {
		base, err = p.resolve(header.deltaBaseOfs)
	}
	if err != nil {
		return object.Raw{}, pkgerrors.Wrap(err, "could not resolve delta base")
	}

	content, err := applyDelta(base.Content, payload)
	if err != nil {
		return object.Raw{}, err
	}
	return object.Raw{Type: base.Type, Content: content}, nil
}

// applyDelta replays a delta instruction stream against base,
// producing the target object's content.
func applyDelta(base, delta []byte) ([]byte, error) {
	r := bytes.NewReader(delta)

	sourceSize, err := readSize(r)
	if err != nil {
		return nil, fmt.Errorf("could not read delta source size: %w", err)
	}
	if sourceSize != int64(len(base)) {
		return nil, fmt.Errorf("delta source size %d does not match base size %d", sourceSize, len(base))
	}
	targetSize, err := readSize(r)
	if err != nil {
		return nil, fmt.Errorf("could not read delta target size: %w", err)
	}

	out := make([]byte, 0, targetSize)
	for {
		opByte, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read delta instruction: %w", err)
		}

		if isMSBSet(opByte) {
			var offsetBuf [4]byte
			for bit := 0; bit < 4; bit++ {
				if opByte&(1<<uint(bit)) != 0 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, fmt.Errorf("could not read copy offset byte: %w", err)
					}
					offsetBuf[bit] = b
				}
			}
			offset := int64(offsetBuf[0]) | int64(offsetBuf[1])<<8 | int64(offsetBuf[2])<<16 | int64(offsetBuf[3])<<24

			var lengthBuf [3]byte
			for bit := 0; bit < 3; bit++ {
				if opByte&(1<<uint(bit+4)) != 0 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, fmt.Errorf("could not read copy length byte: %w", err)
					}
					lengthBuf[bit] = b
				}
			}
			length := int64(lengthBuf[0]) | int64(lengthBuf[1])<<8 | int64(lengthBuf[2])<<16
			if length == 0 {
				length = 0x10000
			}

			if offset+length > int64(len(base)) {
				return nil, fmt.Errorf("%w: copy instruction reads past base object", ErrIntOverflow)
			}
			out = append(out, base[offset:offset+length]...)
			continue
		}

		// MSB clear: the byte itself is a literal instruction length.
		insertLen := int(opByte)
		literal := make([]byte, insertLen)
		if _, err := io.ReadFull(r, literal); err != nil {
			return nil, fmt.Errorf("could not read insert literal: %w", err)
		}
		out = append(out, literal...)
	}

	if int64(len(out)) != targetSize {
		return nil, fmt.Errorf("delta produced %d bytes, expected %d", len(out), targetSize)
	}
	return out, nil
}

// offsetReader adapts File.r's ReadAt into a streaming io.Reader
// starting at a fixed offset, which is what zlib.NewReader needs.
type offsetReader struct {
	p      *File
	offset int64
}

func (o *offsetReader) Read(p []byte) (int, error) {
	n, err := o.p.r.ReadAt(p, o.offset)
	o.offset += int64(n)
	return n, err
}
