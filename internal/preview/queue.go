package preview

import "container/heap"

type queueItem struct {
	key      string
	priority int
	seq      uint64
	fallback *Metadata
	index    int
}

// itemHeap — max-heap by priority, FIFO by enqueue sequence among equals.
type itemHeap []*queueItem

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*queueItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// priorityQueue is the deduplicated set of pending fetch requests. At most
// one item per key; re-enqueueing an already queued key only ever raises its
// priority. Not safe for concurrent use on its own; the Prefetcher
// serializes access under its mutex.
type priorityQueue struct {
	heap  itemHeap
	byKey map[string]*queueItem
	seq   uint64
}

func newPriorityQueue() *priorityQueue {
	q := &priorityQueue{byKey: make(map[string]*queueItem)}
	heap.Init(&q.heap)
	return q
}

func (q *priorityQueue) enqueue(key string, priority int, fallback *Metadata) {
	if it, ok := q.byKey[key]; ok {
		if priority > it.priority {
			it.priority = priority
			heap.Fix(&q.heap, it.index)
		}
		if it.fallback == nil {
			it.fallback = fallback
		}
		return
	}

	it := &queueItem{
		key:      key,
		priority: priority,
		seq:      q.seq,
		fallback: fallback,
	}
	q.seq++
	q.byKey[key] = it
	heap.Push(&q.heap, it)
}

// dequeueBatch removes and returns up to n items in (priority desc, enqueue
// order asc) order. Returns fewer than n, possibly none, without blocking.
func (q *priorityQueue) dequeueBatch(n int) []*queueItem {
	var out []*queueItem
	for len(out) < n && q.heap.Len() > 0 {
		it := heap.Pop(&q.heap).(*queueItem)
		delete(q.byKey, it.key)
		out = append(out, it)
	}
	return out
}

func (q *priorityQueue) len() int {
	return q.heap.Len()
}

func (q *priorityQueue) clear() {
	q.heap = q.heap[:0]
	q.byKey = make(map[string]*queueItem)
}
