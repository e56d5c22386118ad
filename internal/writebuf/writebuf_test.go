package writebuf_test

import (
	"strings"
	"testing"

	"github.com/Nivl/git-go/internal/writebuf"
	"github.com/stretchr/testify/assert"
)

func TestNewStartsAt4096(t *testing.T) {
	t.Parallel()

	b := writebuf.New()
	assert.Equal(t, 4096, b.Cap())
	assert.Equal(t, 0, b.Len())
}

func TestWriteWithinCapacityDoesNotGrow(t *testing.T) {
	t.Parallel()

	b := writebuf.New()
	_, err := b.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 4096, b.Cap())
	assert.Equal(t, "hello", string(b.Bytes()))
}

func TestWriteDoublesOnOverflow(t *testing.T) {
	t.Parallel()

	b := writebuf.New()
	big := strings.Repeat("x", 5000)
	_, err := b.Write([]byte(big))
	assert.NoError(t, err)
	assert.Equal(t, 8192, b.Cap())
	assert.Equal(t, big, string(b.Bytes()))
}

func TestWriteDoublesMultipleTimes(t *testing.T) {
	t.Parallel()

	b := writebuf.New()
	big := strings.Repeat("x", 20000)
	_, err := b.Write([]byte(big))
	assert.NoError(t, err)
	assert.Equal(t, 32768, b.Cap())
}

func TestPrintfGrowsExactlyAsNeeded(t *testing.T) {
	t.Parallel()

	b := writebuf.New()
	b.Printf("%s %d\x00%s", "blob", 5000, strings.Repeat("y", 4990))
	assert.True(t, b.Len() > 4096)
	assert.Equal(t, 8192, b.Cap())
}

func TestReset(t *testing.T) {
	t.Parallel()

	b := writebuf.New()
	b.Write([]byte("hello")) //nolint:errcheck
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 4096, b.Cap())
}
