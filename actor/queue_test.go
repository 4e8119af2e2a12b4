package actor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestQueueFIFO verifies that values dequeue in enqueue order.
func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	w, r := newQueue[int]()

	for i := 0; i < 100; i++ {
		require.NoError(t, w.tryEnqueue(i))
	}

	for i := 0; i < 100; i++ {
		v, ok := r.tryDequeue()
		require.True(t, ok, "value %d should be queued", i)
		require.Equal(t, i, v)
	}

	_, ok := r.tryDequeue()
	require.False(t, ok, "queue should be empty")
}

// TestQueueEmptySentinel verifies the empty-queue return value and the
// best-effort hasMsgs probe.
func TestQueueEmptySentinel(t *testing.T) {
	t.Parallel()

	w, r := newQueue[string]()

	require.False(t, r.hasMsgs())

	_, ok := r.tryDequeue()
	require.False(t, ok)

	require.NoError(t, w.tryEnqueue("a"))
	require.True(t, r.hasMsgs())
}

// TestQueueClosed verifies that a closed queue rejects enqueues but still
// drains values that were already queued.
func TestQueueClosed(t *testing.T) {
	t.Parallel()

	w, r := newQueue[int]()

	require.NoError(t, w.tryEnqueue(1))
	w.close()

	require.ErrorIs(t, w.tryEnqueue(2), ErrQueueClosed)

	v, ok := r.tryDequeue()
	require.True(t, ok, "queued value should survive close")
	require.Equal(t, 1, v)
}

// TestQueueConcurrentProducers verifies that concurrent enqueues never drop
// values and preserve per-producer order.
func TestQueueConcurrentProducers(t *testing.T) {
	t.Parallel()

	const producers = 8
	const perProducer = 500

	w, r := newQueue[[2]int]()

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()

			// The queue is never closed here, so enqueues cannot
			// fail; the total below catches any lost value.
			for i := 0; i < perProducer; i++ {
				_ = w.tryEnqueue([2]int{p, i})
			}
		}(p)
	}
	wg.Wait()

	lastSeen := make(map[int]int)

	total := 0
	for {
		v, ok := r.tryDequeue()
		if !ok {
			break
		}
		total++

		p, i := v[0], v[1]
		last, seen := lastSeen[p]
		if !seen {
			last = -1
		}
		require.Greater(t, i, last,
			"per-producer order should hold")
		lastSeen[p] = i
	}

	require.Equal(t, producers*perProducer, total)
}

// TestQueueOrderProperty exercises arbitrary interleavings of enqueue and
// dequeue operations against a model slice.
func TestQueueOrderProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		w, r := newQueue[int]()

		var model []int
		next := 0

		ops := rapid.IntRange(1, 200).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(rt, "enqueue") {
				require.NoError(rt, w.tryEnqueue(next))
				model = append(model, next)
				next++
				continue
			}

			v, ok := r.tryDequeue()
			if len(model) == 0 {
				require.False(rt, ok)
				continue
			}

			require.True(rt, ok)
			require.Equal(rt, model[0], v)
			model = model[1:]
		}
	})
}
