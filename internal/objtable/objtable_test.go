package objtable_test

import (
	"testing"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/internal/objtable"
	"github.com/stretchr/testify/assert"
)

func oidFor(b byte) githash.Oid {
	var oid githash.Oid
	oid[0] = b
	return oid
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	tbl := objtable.New()
	oid := oidFor(1)
	tbl.Put(oid, "value")

	v, ok := tbl.Get(oid)
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	tbl := objtable.New()
	_, ok := tbl.Get(oidFor(1))
	assert.False(t, ok)
}

func TestPutReplacesExistingKeepsIdentity(t *testing.T) {
	t.Parallel()

	tbl := objtable.New()
	oid := oidFor(1)
	tbl.Put(oid, "first")
	tbl.Put(oid, "second")

	v, ok := tbl.Get(oid)
	assert.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, tbl.Len())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	tbl := objtable.New()
	oid := oidFor(1)
	tbl.Put(oid, "value")
	tbl.Delete(oid)

	_, ok := tbl.Get(oid)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestRehashAtCeil65PercentOf32(t *testing.T) {
	t.Parallel()

	tbl := objtable.New()
	assert.Equal(t, 32, tbl.Buckets())

	for i := 0; i < 20; i++ {
		var oid githash.Oid
		oid[0] = byte(i)
		oid[4] = byte(i) // vary the bucket-significant bytes too
		tbl.Put(oid, i)
	}
	assert.Equal(t, 32, tbl.Buckets(), "should not have rehashed yet at 20 entries")

	var oid githash.Oid
	oid[0] = 20
	oid[4] = 20
	tbl.Put(oid, 20)
	assert.Equal(t, 64, tbl.Buckets(), "21st insertion should trigger a rehash")
}

func TestRehashPreservesAllEntries(t *testing.T) {
	t.Parallel()

	tbl := objtable.New()
	for i := 0; i < 100; i++ {
		var oid githash.Oid
		oid[0] = byte(i)
		oid[1] = byte(i >> 8)
		tbl.Put(oid, i)
	}

	for i := 0; i < 100; i++ {
		var oid githash.Oid
		oid[0] = byte(i)
		oid[1] = byte(i >> 8)
		v, ok := tbl.Get(oid)
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
}
