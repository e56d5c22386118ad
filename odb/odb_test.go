package odb_test

import (
	"errors"
	"testing"

	"github.com/Nivl/git-go/githash"
	"github.com/Nivl/git-go/object"
	"github.com/Nivl/git-go/odb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	objects   map[githash.Oid]object.Raw
	writable  bool
	headerOK  bool
	existsOK  bool
	readCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[githash.Oid]object.Raw{}}
}

func (f *fakeBackend) Read(oid githash.Oid) (object.Raw, error) {
	f.readCalls++
	raw, ok := f.objects[oid]
	if !ok {
		return object.Raw{}, errors.New("not found in fake backend")
	}
	return raw, nil
}

func (f *fakeBackend) Exists(oid githash.Oid) (bool, error) {
	if !f.existsOK {
		return false, errors.New("exists unsupported")
	}
	_, ok := f.objects[oid]
	return ok, nil
}

func (f *fakeBackend) ReadHeader(oid githash.Oid) (object.Type, int64, error) {
	if !f.headerOK {
		return object.TypeBad, 0, errors.New("header unsupported")
	}
	raw, ok := f.objects[oid]
	if !ok {
		return object.TypeBad, 0, errors.New("not found")
	}
	return raw.Type, int64(len(raw.Content)), nil
}

func (f *fakeBackend) Write(oid githash.Oid, raw object.Raw) error {
	if !f.writable {
		return errors.New("read only")
	}
	f.objects[oid] = raw
	return nil
}

var oidA = githash.Oid{1}
var oidB = githash.Oid{2}

func TestReadFallsThroughBackends(t *testing.T) {
	t.Parallel()

	first := newFakeBackend()
	second := newFakeBackend()
	second.objects[oidA] = object.Raw{Type: object.TypeBlob, Content: []byte("hello")}

	db := odb.New()
	require.NoError(t, db.AddBackend(first, 2))
	require.NoError(t, db.AddBackend(second, 1))

	raw, err := db.Read(oidA)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw.Content)
}

func TestReadNotFound(t *testing.T) {
	t.Parallel()

	db := odb.New()
	require.NoError(t, db.AddBackend(newFakeBackend(), 1))

	_, err := db.Read(oidA)
	assert.ErrorIs(t, err, odb.ErrNotFound)
}

func TestPriorityOrderIsRespected(t *testing.T) {
	t.Parallel()

	low := newFakeBackend()
	low.objects[oidA] = object.Raw{Type: object.TypeBlob, Content: []byte("low-priority")}
	high := newFakeBackend()
	high.objects[oidA] = object.Raw{Type: object.TypeBlob, Content: []byte("high-priority")}

	db := odb.New()
	require.NoError(t, db.AddBackend(low, 1))
	require.NoError(t, db.AddBackend(high, 10))

	raw, err := db.Read(oidA)
	require.NoError(t, err)
	assert.Equal(t, []byte("high-priority"), raw.Content)
}

func TestExistsUsesExisterWhenAvailable(t *testing.T) {
	t.Parallel()

	b := newFakeBackend()
	b.existsOK = true
	b.objects[oidA] = object.Raw{Type: object.TypeBlob, Content: []byte("x")}

	db := odb.New()
	require.NoError(t, db.AddBackend(b, 1))

	ok, err := db.Exists(oidA)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, b.readCalls, "should not have fallen back to Read")
}

func TestExistsFallsBackToRead(t *testing.T) {
	t.Parallel()

	b := newFakeBackend()
	b.objects[oidA] = object.Raw{Type: object.TypeBlob, Content: []byte("x")}

	db := odb.New()
	require.NoError(t, db.AddBackend(b, 1))

	ok, err := db.Exists(oidA)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, b.readCalls)
}

func TestReadHeaderDegradesToFullRead(t *testing.T) {
	t.Parallel()

	b := newFakeBackend()
	b.objects[oidA] = object.Raw{Type: object.TypeBlob, Content: []byte("hello")}

	db := odb.New()
	require.NoError(t, db.AddBackend(b, 1))

	typ, size, err := db.ReadHeader(oidA)
	require.NoError(t, err)
	assert.Equal(t, object.TypeBlob, typ)
	assert.Equal(t, int64(5), size)
}

func TestWriteGoesToHighestPriorityWriter(t *testing.T) {
	t.Parallel()

	readOnly := newFakeBackend()
	writable := newFakeBackend()
	writable.writable = true

	db := odb.New()
	require.NoError(t, db.AddBackend(readOnly, 1))
	require.NoError(t, db.AddBackend(writable, 2))

	raw := object.Raw{Type: object.TypeBlob, Content: []byte("hello")}
	require.NoError(t, db.Write(oidA, raw))

	_, ok := readOnly.objects[oidA]
	assert.False(t, ok)
	got, ok := writable.objects[oidA]
	assert.True(t, ok)
	assert.Equal(t, raw, got)
}

func TestWriteNoWritableBackend(t *testing.T) {
	t.Parallel()

	db := odb.New()
	require.NoError(t, db.AddBackend(newFakeBackend(), 1))

	err := db.Write(oidB, object.Raw{Type: object.TypeBlob, Content: []byte("x")})
	assert.ErrorIs(t, err, odb.ErrReadOnly)
}

type fakeBindable struct {
	*fakeBackend
	bound *odb.ODB
}

func newFakeBindable() *fakeBindable {
	return &fakeBindable{fakeBackend: newFakeBackend()}
}

func (f *fakeBindable) BindODB(db *odb.ODB) error {
	if f.bound != nil && f.bound != db {
		return odb.ErrBusy
	}
	f.bound = db
	return nil
}

func TestAddBackendBindsBindableBackends(t *testing.T) {
	t.Parallel()

	b := newFakeBindable()
	db := odb.New()
	require.NoError(t, db.AddBackend(b, 1))
	assert.Same(t, db, b.bound)
}

func TestAddBackendRejectsReboundBackend(t *testing.T) {
	t.Parallel()

	b := newFakeBindable()
	first := odb.New()
	require.NoError(t, first.AddBackend(b, 1))

	second := odb.New()
	err := second.AddBackend(b, 1)
	assert.ErrorIs(t, err, odb.ErrBusy)
}
