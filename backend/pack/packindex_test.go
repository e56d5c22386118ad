package pack

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Nivl/git-go/githash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildIndex constructs a minimal, valid v2 .idx file containing a
// single object, entirely within layer4 (no layer5 entries needed).
func buildIndex(t *testing.T, oid githash.Oid, offset uint32) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(indexHeader())

	// layer1: fan-out table. Every entry from oid[0] onward reports 1
	// cumulative object.
	fanOut := make([]byte, layer1Size)
	for i := int(oid[0]); i < 256; i++ {
		binary.BigEndian.PutUint32(fanOut[i*4:i*4+4], 1)
	}
	buf.Write(fanOut)

	// layer2: the single oid
	buf.Write(oid.Bytes())

	// layer3: one CRC, unused
	buf.Write(make([]byte, layer3EntrySize))

	// layer4: one offset, MSB clear
	layer4 := make([]byte, layer4EntrySize)
	binary.BigEndian.PutUint32(layer4, offset)
	buf.Write(layer4)

	// footer: two (fake) SHA1s
	buf.Write(make([]byte, 40))

	return buf.Bytes()
}

func TestIndexOffsetOf(t *testing.T) {
	t.Parallel()

	var oid githash.Oid
	oid[0] = 0x9b
	oid[19] = 0x42

	data := buildIndex(t, oid, 1234)
	idx, err := newIndex(bytes.NewReader(data))
	require.NoError(t, err)

	offset, err := idx.offsetOf(oid)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), offset)
}

func TestIndexOffsetOfMissing(t *testing.T) {
	t.Parallel()

	var oid githash.Oid
	oid[0] = 0x9b

	data := buildIndex(t, oid, 1234)
	idx, err := newIndex(bytes.NewReader(data))
	require.NoError(t, err)

	var missing githash.Oid
	missing[0] = 0xff
	_, err = idx.offsetOf(missing)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestIndexInvalidHeader(t *testing.T) {
	t.Parallel()

	_, err := newIndex(bytes.NewReader(make([]byte, 8)))
	assert.Error(t, err)
}

func TestIndexParseIsMemoized(t *testing.T) {
	t.Parallel()

	var oid githash.Oid
	oid[0] = 1
	data := buildIndex(t, oid, 42)
	idx, err := newIndex(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = idx.offsetOf(oid)
	require.NoError(t, err)
	assert.True(t, idx.parsed)

	// a second call must not attempt to read from the (now-exhausted)
	// reader again
	_, err = idx.offsetOf(oid)
	require.NoError(t, err)
}
