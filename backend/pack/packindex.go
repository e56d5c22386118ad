package pack

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/Nivl/git-go/githash"
	"github.com/pkg/errors"
)

const (
	layer1Size      = 1024
	layer3EntrySize = 4
	layer4EntrySize = 4
)

// indexHeader is the 8-byte magic+version prefix of a v2 pack index.
// Only version 2 is supported.
func indexHeader() []byte {
	return []byte{255, 't', 'O', 'c', 0, 0, 0, 2}
}

// index represents a packfile's .idx companion file. It is parsed
// lazily, and only once: the first call to offsetOf triggers a full
// parse of the file into an in-memory oid->offset map, after which
// the reader is never touched again.
//
// The index has a header, 5 layers, and a footer.
// header: 8 bytes, see indexHeader.
// Layer1: 1024 bytes, 256 4-byte entries. Each entry holds the
//         CUMULATIVE number of objects whose oid's first byte is <=
//         the entry's index, letting a reader binary-search for how
//         many objects share a given leading byte.
// Layer2: objectCount*20 bytes of oids, sorted ascending.
// Layer3: objectCount*4 bytes of CRC32s. Not used here.
// Layer4: objectCount*4 bytes of offsets. The MSB of each entry flags
//         whether the real offset lives in layer5 instead (needed
//         once a pack exceeds 2GB and a 31-bit offset no longer
//         fits); the remaining 31 bits then index into layer5.
// Layer5: present only for packs >2GB; 8-byte offsets.
// Footer: 40 bytes, two SHA1s (pack checksum, index checksum).
type index struct {
	mu sync.Mutex

	r          *bufio.Reader
	hashOffset map[githash.Oid]uint64

	parseError error
	parsed     bool
}

// newIndex validates the header of r and returns an unparsed index.
func newIndex(r io.Reader) (*index, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(indexHeader()))
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, errors.Wrap(err, "could not read index header")
	}
	if !bytes.Equal(header, indexHeader()) {
		return nil, errors.Wrap(ErrInvalidMagic, "invalid index header")
	}
	return &index{r: br}, nil
}

// offsetOf returns the offset of oid inside the packfile.
func (idx *index) offsetOf(oid githash.Oid) (uint64, error) {
	if err := idx.parse(); err != nil {
		return 0, errors.Wrap(err, "could not parse index")
	}
	offset, ok := idx.hashOffset[oid]
	if !ok {
		return 0, ErrObjectNotFound
	}
	return offset, nil
}

func (idx *index) parse() (err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.parsed {
		return nil
	}
	if idx.parseError != nil {
		return idx.parseError
	}
	defer func() {
		if err != nil {
			idx.parseError = err
		}
	}()

	bufInt32 := make([]byte, 4)
	bufInt64 := make([]byte, 8)
	bufOid := make([]byte, githash.Size)

	if _, err = idx.r.Discard(255 * 4); err != nil {
		return errors.Wrap(err, "could not move to the last entry of layer1")
	}
	if _, err = io.ReadFull(idx.r, bufInt32); err != nil {
		return errors.Wrap(err, "could not read object count")
	}
	objectCount := int(binary.BigEndian.Uint32(bufInt32))

	oids := make([]githash.Oid, 0, objectCount)
	layer2offset := len(indexHeader()) + layer1Size
	layer2Size := objectCount * githash.Size
	layer3offset := layer2offset + layer2Size

	for i := 0; i < objectCount; i++ {
		currentOffset := layer2offset + i*githash.Size
		if currentOffset >= layer3offset {
			return errors.Wrapf(os.ErrNotExist, "oid %d is out of bound in layer2", i)
		}
		if _, err = io.ReadFull(idx.r, bufOid); err != nil {
			return errors.Wrapf(err, "could not read oid at offset %d", currentOffset)
		}
		oid, err := githash.FromBytes(bufOid)
		if err != nil {
			return errors.Wrapf(err, "invalid oid at offset %d", currentOffset)
		}
		oids = append(oids, oid)
	}

	// layer3 (CRCs) is skipped: nothing downstream needs it.
	layer3Size := objectCount * layer3EntrySize
	if _, err = idx.r.Discard(layer3Size); err != nil {
		return errors.Wrap(err, "could not skip layer3")
	}

	idx.hashOffset = make(map[githash.Oid]uint64, objectCount)
	layer4Offset := layer2offset + layer2Size + layer3Size
	layer4Size := objectCount * layer4EntrySize
	layer5Offset := int64(layer4Offset + layer4Size)

	type deferredEntry struct {
		oid            githash.Oid
		relativeOffset uint64
	}
	var deferred []deferredEntry

	for i, oid := range oids {
		currentOffset := int64(layer4Offset + i*layer4EntrySize)
		if currentOffset >= layer5Offset {
			return errors.Wrapf(os.ErrNotExist, "oid %s is out of bound in layer4", oid)
		}
		if _, err = io.ReadFull(idx.r, bufInt32); err != nil {
			return errors.Wrapf(err, "could not read offset of oid %s (layer4)", oid)
		}
		entry := binary.BigEndian.Uint32(bufInt32)
		msb := (entry >> 31) == 1
		offset := uint64(entry & 0x7fffffff)
		if msb {
			deferred = append(deferred, deferredEntry{oid: oid, relativeOffset: offset})
			continue
		}
		idx.hashOffset[oid] = offset
	}

	// the reader can't seek backward, so layer5 entries (which may be
	// referenced out of order by layer4) must be collected and then
	// read back in increasing order.
	sort.Slice(deferred, func(i, j int) bool {
		return deferred[i].relativeOffset < deferred[j].relativeOffset
	})
	currentRelativeOffset := uint64(0)
	for _, d := range deferred {
		if d.relativeOffset != currentRelativeOffset {
			return errors.Wrapf(os.ErrNotExist, "expected oid %s at relative offset %d, got %d", d.oid, currentRelativeOffset, d.relativeOffset)
		}
		if _, err = io.ReadFull(idx.r, bufInt64); err != nil {
			return errors.Wrapf(err, "could not read offset of oid %s (layer5)", d.oid)
		}
		idx.hashOffset[d.oid] = binary.BigEndian.Uint64(bufInt64)
		currentRelativeOffset++
	}

	idx.parsed = true
	return nil
}
