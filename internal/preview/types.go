package preview

// Metadata holds the preview fields fetched for a resource key. All fields
// are optional; a fetcher fills in whatever the page exposes.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
}

// Entry is one resolved cache slot. Failed marks a fetch that was attempted
// and produced nothing usable; Metadata may still carry caller-supplied
// fallback fields in that case. A key that was never attempted is absent
// from the cache entirely, which GetCached reports separately.
type Entry struct {
	Metadata *Metadata `json:"metadata,omitempty"`
	Failed   bool      `json:"failed,omitempty"`
}

const snapshotVersion = 1

// snapshot is the persisted form of the cache. Version is checked on
// restore; an unknown version is discarded rather than migrated.
type snapshot struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}
