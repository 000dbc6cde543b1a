package preview

import (
	"sort"
	"time"
)

// TimedItem associates a resource key with the instant it is relevant to,
// e.g. an event link with the event's start time.
type TimedItem struct {
	Key string    `json:"key"`
	At  time.Time `json:"at"`
}

// RankedItem is a key with the enqueue priority assigned to it.
type RankedItem struct {
	Key      string
	Priority int
}

// RankByTime converts timed items into enqueue priorities by relevance to
// now. Current and future items come first, soonest first; past items
// follow, most recent first, and every past item ranks below every future
// one. Rank r of N items maps to priority N-r, so the top item of a large
// batch outranks the top item of a small one and never drops below
// unrelated single enqueues at priority zero.
func RankByTime(items []TimedItem, now time.Time) []RankedItem {
	ranked := make([]TimedItem, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		di := ranked[i].At.Sub(now)
		dj := ranked[j].At.Sub(now)
		futureI := di >= 0
		futureJ := dj >= 0
		if futureI != futureJ {
			return futureI
		}
		if futureI {
			return di < dj
		}
		return di > dj
	})

	out := make([]RankedItem, len(ranked))
	for r, it := range ranked {
		out[r] = RankedItem{Key: it.Key, Priority: len(ranked) - r}
	}
	return out
}
