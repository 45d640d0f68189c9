package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	input, header, source string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		input:  filepath.Join(dir, "test.vox"),
		header: filepath.Join(dir, "test.h"),
		source: filepath.Join(dir, "test.cc"),
	}
	require.NoError(t, os.WriteFile(f.input, []byte("VOX model"), 0644))
	require.NoError(t, os.WriteFile(f.header, []byte("#pragma once\n// #version:1#\n"), 0644))
	require.NoError(t, os.WriteFile(f.source, []byte("// #version:1# machine generated, do not edit!\n"), 0644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(f.input, past, past))
	return f
}

func (f fixture) outputs() []string {
	return []string{f.header, f.source}
}

func TestIsDirty(t *testing.T) {
	f := newFixture(t)

	dirty, err := IsDirty(1, "", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.False(t, dirty)

	// Different version
	dirty, err = IsDirty(2, "", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.True(t, dirty)

	// Outputs carry no options marker
	dirty, err = IsDirty(1, "0123456789ABCDEF", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.True(t, dirty)

	// Input newer than outputs
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(f.input, future, future))
	dirty, err = IsDirty(1, "", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestIsDirtyMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.source))

	dirty, err := IsDirty(1, "", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.True(t, dirty)

	_, err = IsDirty(1, "", []string{f.input + ".missing"}, f.outputs())
	assert.Error(t, err)
}

func TestDB(t *testing.T) {
	f := newFixture(t)

	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	fresh, err := db.Fresh(1, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.False(t, fresh)

	require.NoError(t, db.Record(1, "", f.input, f.outputs()))

	fresh, err = db.Fresh(1, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.True(t, fresh)

	// Touching without changing content is still fresh
	now := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(f.input, now, now))
	fresh, err = db.Fresh(1, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = db.Fresh(2, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.False(t, fresh)

	// Recording again replaces the previous entry
	require.NoError(t, db.Record(1, "", f.input, f.outputs()))

	require.NoError(t, os.WriteFile(f.input, []byte("VOX changed"), 0644))
	fresh, err = db.Fresh(1, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestIsDirtyOptions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.header, []byte("#pragma once\n// #version:1#\n// #options:AAAA#\n"), 0644))
	require.NoError(t, os.WriteFile(f.source, []byte("// #version:1# machine generated, do not edit!\n// #options:AAAA#\n"), 0644))

	dirty, err := IsDirty(1, "AAAA", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.False(t, dirty)

	dirty, err = IsDirty(1, "BBBB", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.True(t, dirty)

	dirty, err = IsDirty(2, "AAAA", []string{f.input}, f.outputs())
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestDBOptions(t *testing.T) {
	f := newFixture(t)

	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Record(1, "AAAA", f.input, f.outputs()))

	fresh, err := db.Fresh(1, "AAAA", f.input, f.outputs())
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = db.Fresh(1, "BBBB", f.input, f.outputs())
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestDBOutputChanged(t *testing.T) {
	f := newFixture(t)

	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Record(1, "", f.input, f.outputs()))
	require.NoError(t, os.WriteFile(f.header, []byte("edited"), 0644))

	fresh, err := db.Fresh(1, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.False(t, fresh)

	require.NoError(t, os.Remove(f.header))
	fresh, err = db.Fresh(1, "", f.input, f.outputs())
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestHashFile(t *testing.T) {
	f := newFixture(t)
	a, err := HashFile(f.input)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := HashFile(f.input)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
