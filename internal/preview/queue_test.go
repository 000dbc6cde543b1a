package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdersByPriorityThenFIFO(t *testing.T) {
	q := newPriorityQueue()

	q.enqueue("low", 1, nil)
	q.enqueue("high", 9, nil)
	q.enqueue("mid-a", 5, nil)
	q.enqueue("mid-b", 5, nil)

	batch := q.dequeueBatch(10)
	require.Len(t, batch, 4)

	keys := make([]string, len(batch))
	for i, it := range batch {
		keys[i] = it.key
	}
	assert.Equal(t, []string{"high", "mid-a", "mid-b", "low"}, keys)
}

func TestQueueDeduplicatesKeys(t *testing.T) {
	q := newPriorityQueue()

	q.enqueue("a", 5, nil)
	q.enqueue("a", 9, nil)

	require.Equal(t, 1, q.len())

	batch := q.dequeueBatch(10)
	require.Len(t, batch, 1)
	assert.Equal(t, "a", batch[0].key)
	assert.Equal(t, 9, batch[0].priority)
}

func TestQueueNeverLowersPriority(t *testing.T) {
	q := newPriorityQueue()

	q.enqueue("a", 9, nil)
	q.enqueue("a", 2, nil)

	batch := q.dequeueBatch(1)
	require.Len(t, batch, 1)
	assert.Equal(t, 9, batch[0].priority)
}

func TestQueueRaisedPriorityReorders(t *testing.T) {
	q := newPriorityQueue()

	q.enqueue("first", 5, nil)
	q.enqueue("second", 5, nil)
	q.enqueue("second", 8, nil)

	batch := q.dequeueBatch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, "second", batch[0].key)
	assert.Equal(t, "first", batch[1].key)
}

func TestDequeueBatchBounded(t *testing.T) {
	q := newPriorityQueue()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		q.enqueue(k, 0, nil)
	}

	assert.Len(t, q.dequeueBatch(3), 3)
	assert.Len(t, q.dequeueBatch(3), 2)
	assert.Len(t, q.dequeueBatch(3), 0)
}

func TestQueueKeepsFirstFallback(t *testing.T) {
	q := newPriorityQueue()

	q.enqueue("a", 1, &Metadata{Title: "fallback"})
	q.enqueue("a", 5, &Metadata{Title: "later"})

	batch := q.dequeueBatch(1)
	require.Len(t, batch, 1)
	require.NotNil(t, batch[0].fallback)
	assert.Equal(t, "fallback", batch[0].fallback.Title)
}

func TestQueueClear(t *testing.T) {
	q := newPriorityQueue()
	q.enqueue("a", 1, nil)
	q.enqueue("b", 2, nil)

	q.clear()

	assert.Equal(t, 0, q.len())
	assert.Empty(t, q.dequeueBatch(10))

	// reusable after clear
	q.enqueue("c", 1, nil)
	assert.Equal(t, 1, q.len())
}
