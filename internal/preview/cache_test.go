package preview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"previewd/internal/store"
)

func TestCacheAbsentVsFailed(t *testing.T) {
	c := newResultCache(store.NewMemory(), zap.NewNop())

	_, ok := c.get("never-tried")
	assert.False(t, ok)

	c.put("failed", Entry{Failed: true})
	entry, ok := c.get("failed")
	require.True(t, ok)
	assert.True(t, entry.Failed)
	assert.Nil(t, entry.Metadata)
}

func TestCachePersistAndRestore(t *testing.T) {
	st := store.NewMemory()

	c := newResultCache(st, zap.NewNop())
	c.put("https://a.example", Entry{Metadata: &Metadata{Title: "A"}})
	c.put("https://b.example", Entry{Failed: true})
	c.persist()

	restored := newResultCache(st, zap.NewNop())
	require.Equal(t, 2, restored.size())

	entry, ok := restored.get("https://a.example")
	require.True(t, ok)
	require.NotNil(t, entry.Metadata)
	assert.Equal(t, "A", entry.Metadata.Title)

	entry, ok = restored.get("https://b.example")
	require.True(t, ok)
	assert.True(t, entry.Failed)
}

func TestCacheRestoreCorruptSnapshot(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(snapshotKey, []byte("{not json")))

	c := newResultCache(st, zap.NewNop())
	assert.Equal(t, 0, c.size())
}

func TestCacheRestoreUnknownVersion(t *testing.T) {
	st := store.NewMemory()
	data, err := json.Marshal(snapshot{
		Version: snapshotVersion + 1,
		Entries: map[string]Entry{"a": {Failed: true}},
	})
	require.NoError(t, err)
	require.NoError(t, st.Set(snapshotKey, data))

	c := newResultCache(st, zap.NewNop())
	assert.Equal(t, 0, c.size())
}

func TestCacheClearDropsSnapshot(t *testing.T) {
	st := store.NewMemory()

	c := newResultCache(st, zap.NewNop())
	c.put("a", Entry{Failed: true})
	c.persist()

	c.clear()
	assert.Equal(t, 0, c.size())

	restored := newResultCache(st, zap.NewNop())
	assert.Equal(t, 0, restored.size())
}

type brokenStore struct{}

func (brokenStore) Get(string) ([]byte, error) { return nil, assert.AnError }
func (brokenStore) Set(string, []byte) error   { return assert.AnError }
func (brokenStore) Delete(string) error        { return assert.AnError }
func (brokenStore) Close() error               { return nil }

func TestCacheSurvivesBrokenStore(t *testing.T) {
	c := newResultCache(brokenStore{}, zap.NewNop())

	c.put("a", Entry{Metadata: &Metadata{Title: "A"}})
	c.persist()
	c.clear()

	// memory stays authoritative regardless of storage failures
	c.put("b", Entry{Failed: true})
	_, ok := c.get("b")
	assert.True(t, ok)
}
