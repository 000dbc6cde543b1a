package preview

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"previewd/internal/store"
)

const (
	// DefaultBatchSize bounds how many fetches run concurrently per cycle.
	DefaultBatchSize = 3
	// DefaultBatchDelay is the politeness pause between drain cycles.
	DefaultBatchDelay = 100 * time.Millisecond
)

// Fetcher resolves a resource key into metadata. The scheduler waits for
// whatever it returns; any timeout is the implementation's responsibility.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*Metadata, error)
}

// Options tune the scheduler. Zero values are replaced with defaults.
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
}

func (o *Options) fillDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = DefaultBatchDelay
	}
}

// Prefetcher fetches preview metadata for enqueued resource keys with
// bounded concurrency, caches every outcome for the session, and notifies
// subscribed listeners as keys resolve. One long-lived instance is
// constructed at startup and injected into consumers; Enqueue, Subscribe,
// Unsubscribe, Clear and Close are the only entry points that mutate state.
type Prefetcher struct {
	mu       sync.Mutex
	cache    *resultCache
	queue    *priorityQueue
	registry *registry

	fetcher Fetcher
	log     *zap.Logger
	stats   *Stats

	batchSize  int
	batchDelay time.Duration

	draining  atomic.Bool
	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New restores the cache snapshot from st and returns an idle prefetcher.
func New(fetcher Fetcher, st store.Store, log *zap.Logger, opts Options) *Prefetcher {
	opts.fillDefaults()

	return &Prefetcher{
		cache:      newResultCache(st, log),
		queue:      newPriorityQueue(),
		registry:   newRegistry(),
		fetcher:    fetcher,
		log:        log,
		stats:      newStats(),
		batchSize:  opts.BatchSize,
		batchDelay: opts.BatchDelay,
		shutdown:   make(chan struct{}),
	}
}

// Enqueue requests metadata for key. If key is already cached the queue is
// left untouched and current subscribers are notified immediately. If key is
// already queued its priority is raised to priority when higher.
func (p *Prefetcher) Enqueue(key string, priority int) {
	p.EnqueueWithFallback(key, priority, nil)
}

// EnqueueWithFallback is Enqueue with metadata to keep should the fetch
// fail. The fallback ends up inside the FailureMarker entry so consumers
// still have something to show.
func (p *Prefetcher) EnqueueWithFallback(key string, priority int, fallback *Metadata) {
	p.mu.Lock()
	if entry, ok := p.cache.get(key); ok {
		listeners := p.registry.listeners(key)
		p.mu.Unlock()
		p.deliver(key, entry, listeners)
		return
	}
	p.queue.enqueue(key, priority, fallback)
	p.mu.Unlock()

	p.kick()
}

// EnqueueUpcoming ranks timed items by relevance to now and enqueues the
// ones not yet cached. Cached keys are skipped outright: enqueueing them
// would only re-fire notifications nobody asked for.
func (p *Prefetcher) EnqueueUpcoming(items []TimedItem) {
	for _, r := range RankByTime(items, time.Now()) {
		p.mu.Lock()
		_, cached := p.cache.get(r.Key)
		p.mu.Unlock()
		if cached {
			continue
		}
		p.Enqueue(r.Key, r.Priority)
	}
}

// GetCached returns the entry for key. ok is false when the key was never
// attempted; a failed fetch returns ok=true with Entry.Failed set.
func (p *Prefetcher) GetCached(key string) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.get(key)
}

// Subscribe registers l for key and returns a token for Unsubscribe. When
// key is already resolved, l is invoked synchronously with the cached entry
// before Subscribe returns, and stays registered either way.
func (p *Prefetcher) Subscribe(key string, l Listener) Token {
	p.mu.Lock()
	tok := p.registry.add(key, l)
	entry, cached := p.cache.get(key)
	p.mu.Unlock()

	if cached {
		l.OnResult(key, entry)
		p.stats.addNotified(1)
	}
	return tok
}

// SubscribeAll registers l for every key's resolution. No cached replay
// happens; only future resolutions are delivered.
func (p *Prefetcher) SubscribeAll(l Listener) Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.addGlobal(l)
}

// Unsubscribe removes the subscription identified by tok. Unknown tokens
// are ignored.
func (p *Prefetcher) Unsubscribe(tok Token) {
	p.mu.Lock()
	p.registry.remove(tok)
	p.mu.Unlock()
}

// Clear atomically empties cache, queue and subscriptions, and drops the
// persisted snapshot. Keys cleared this way read back as never attempted.
func (p *Prefetcher) Clear() {
	p.mu.Lock()
	p.cache.clear()
	p.queue.clear()
	p.registry.clear()
	p.mu.Unlock()
}

// Stats returns a snapshot of scheduler counters and process usage.
func (p *Prefetcher) Stats() StatsSnapshot {
	p.mu.Lock()
	cached := p.cache.size()
	queued := p.queue.len()
	p.mu.Unlock()
	return p.stats.snapshot(cached, queued)
}

// Close stops the drain loop and waits for the in-flight batch to finish.
// Queued items that were never dispatched stay unqueued; the cache snapshot
// of completed batches is already persisted.
func (p *Prefetcher) Close() {
	p.closeOnce.Do(func() {
		close(p.shutdown)
	})
	p.wg.Wait()
}

// kick moves the scheduler from Idle to Draining. Redundant kicks while a
// drain loop is running are no-ops.
func (p *Prefetcher) kick() {
	select {
	case <-p.shutdown:
		return
	default:
	}

	if p.draining.CompareAndSwap(false, true) {
		p.wg.Add(1)
		go p.drain()
	}
}

func (p *Prefetcher) drain() {
	defer p.wg.Done()

	for {
		for {
			select {
			case <-p.shutdown:
				p.draining.Store(false)
				return
			default:
			}

			p.mu.Lock()
			batch := p.queue.dequeueBatch(p.batchSize)
			p.mu.Unlock()
			if len(batch) == 0 {
				break
			}

			p.runBatch(batch)

			p.mu.Lock()
			remaining := p.queue.len()
			p.mu.Unlock()
			if remaining == 0 {
				break
			}

			select {
			case <-p.shutdown:
				p.draining.Store(false)
				return
			case <-time.After(p.batchDelay):
			}
		}

		p.draining.Store(false)

		// An Enqueue may have raced the transition to Idle and skipped its
		// kick; pick its work up here instead of leaving it stranded.
		p.mu.Lock()
		remaining := p.queue.len()
		p.mu.Unlock()
		if remaining == 0 || !p.draining.CompareAndSwap(false, true) {
			return
		}
	}
}

// runBatch dispatches every item concurrently and waits for all of them.
// Outcomes are independent: a failed item becomes a FailureMarker entry and
// never disturbs its siblings. The snapshot is persisted once per batch.
func (p *Prefetcher) runBatch(batch []*queueItem) {
	var wg sync.WaitGroup
	wg.Add(len(batch))

	for _, it := range batch {
		go func(it *queueItem) {
			defer wg.Done()

			md, err := p.fetcher.Fetch(context.Background(), it.key)
			var entry Entry
			if err != nil || md == nil {
				entry = Entry{Metadata: it.fallback, Failed: true}
				p.stats.addFailed()
				p.log.Debug("fetch failed",
					zap.String("key", it.key),
					zap.Error(err))
			} else {
				entry = Entry{Metadata: md}
				p.stats.addFetched()
			}
			p.commit(it.key, entry)
		}(it)
	}
	wg.Wait()

	p.mu.Lock()
	p.cache.persist()
	p.mu.Unlock()
	p.stats.addBatch()
}

// commit stores the entry and notifies whoever is subscribed right now.
// Delivery happens outside the lock so listeners may call back into the
// prefetcher.
func (p *Prefetcher) commit(key string, entry Entry) {
	p.mu.Lock()
	p.cache.put(key, entry)
	listeners := p.registry.listeners(key)
	p.mu.Unlock()

	p.deliver(key, entry, listeners)
}

func (p *Prefetcher) deliver(key string, entry Entry, listeners []Listener) {
	for _, l := range listeners {
		l.OnResult(key, entry)
	}
	p.stats.addNotified(len(listeners))
}
