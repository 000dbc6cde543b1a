package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set("k", []byte("value")))
	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	require.NoError(t, m.Set("k", []byte("updated")))
	got, err = m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)

	require.NoError(t, m.Delete("k"))
	_, err = m.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte("original")
	require.NoError(t, m.Set("k", value))

	value[0] = 'X'
	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestFileRoundTrip(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	_, err = f.Get("https://a.example/path?q=1")
	assert.ErrorIs(t, err, ErrNotFound)

	// keys with URL characters must map to valid filenames
	require.NoError(t, f.Set("https://a.example/path?q=1", []byte("value")))
	got, err := f.Get("https://a.example/path?q=1")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	require.NoError(t, f.Delete("https://a.example/path?q=1"))
	_, err = f.Get("https://a.example/path?q=1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, f.Delete("never-stored"))
}

func TestFileSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Set("k", []byte("value")))

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	got, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestOpenFallsBackToMemory(t *testing.T) {
	log := zap.NewNop()

	s := Open(Config{Backend: "memory"}, log)
	assert.IsType(t, &Memory{}, s)

	// unknown backends degrade instead of failing
	s = Open(Config{Backend: "floppy"}, log)
	assert.IsType(t, &Memory{}, s)

	// unreachable redis degrades instead of failing
	s = Open(Config{Backend: "redis", RedisAddr: "127.0.0.1:1"}, log)
	assert.IsType(t, &Memory{}, s)
}

func TestOpenFileBackend(t *testing.T) {
	s := Open(Config{Backend: "file", Dir: t.TempDir()}, zap.NewNop())
	assert.IsType(t, &File{}, s)
}
