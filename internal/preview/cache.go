package preview

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"previewd/internal/store"
)

const snapshotKey = "preview:snapshot"

// resultCache holds resolved entries for the session and mirrors them into
// the snapshot store. Storage trouble is logged and otherwise ignored — the
// in-memory map stays authoritative. Not safe for concurrent use on its
// own; the Prefetcher serializes access under its mutex.
type resultCache struct {
	entries map[string]Entry
	store   store.Store
	log     *zap.Logger
}

func newResultCache(st store.Store, log *zap.Logger) *resultCache {
	c := &resultCache{
		entries: make(map[string]Entry),
		store:   st,
		log:     log,
	}
	c.restore()
	return c
}

func (c *resultCache) get(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

func (c *resultCache) put(key string, e Entry) {
	c.entries[key] = e
}

func (c *resultCache) size() int {
	return len(c.entries)
}

func (c *resultCache) clear() {
	c.entries = make(map[string]Entry)
	if err := c.store.Delete(snapshotKey); err != nil {
		c.log.Warn("deleting cache snapshot", zap.Error(err))
	}
}

func (c *resultCache) persist() {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Entries: c.entries})
	if err != nil {
		c.log.Warn("marshaling cache snapshot", zap.Error(err))
		return
	}
	if err := c.store.Set(snapshotKey, data); err != nil {
		c.log.Warn("persisting cache snapshot", zap.Error(err))
	}
}

// restore loads the previous session's snapshot. Anything wrong with it —
// missing, unreadable, unknown version — means starting cold, never failing.
func (c *resultCache) restore() {
	data, err := c.store.Get(snapshotKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn("reading cache snapshot", zap.Error(err))
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.log.Warn("discarding unreadable cache snapshot", zap.Error(err))
		return
	}
	if snap.Version != snapshotVersion {
		c.log.Warn("discarding cache snapshot with unknown version",
			zap.Int("version", snap.Version))
		return
	}
	if snap.Entries != nil {
		c.entries = snap.Entries
		c.log.Info("restored cache snapshot", zap.Int("entries", len(snap.Entries)))
	}
}
