package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueueHigherPriorityFirst(t *testing.T) {
	q := NewPriorityQueue()

	require.NoError(t, q.Push("low", 1))
	require.NoError(t, q.Push("high", 9))
	require.NoError(t, q.Push("mid", 5))

	for _, want := range []string{"high", "mid", "low"} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestPriorityQueueFIFOWithinPriority(t *testing.T) {
	q := NewPriorityQueue()

	require.NoError(t, q.Push("first", 5))
	require.NoError(t, q.Push("second", 5))
	require.NoError(t, q.Push("third", 5))

	for _, want := range []string{"first", "second", "third"} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestPriorityQueuePopBlocksUntilPush(t *testing.T) {
	q := NewPriorityQueue()

	done := make(chan string, 1)
	go func() {
		id, ok := q.Pop()
		if ok {
			done <- id
		}
	}()

	// Give the consumer a moment to block.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push("tsk_1", 5))

	select {
	case id := <-done:
		assert.Equal(t, "tsk_1", id)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestPriorityQueueCloseUnblocksConsumers(t *testing.T) {
	q := NewPriorityQueue()

	const consumers = 4
	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Pop()
			assert.False(t, ok)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("consumers still blocked after Close")
	}
}

func TestPriorityQueuePushAfterClose(t *testing.T) {
	q := NewPriorityQueue()
	q.Close()

	assert.ErrorIs(t, q.Push("tsk_1", 5), ErrQueueClosed)
}

func TestPriorityQueueDrainsRemainingAfterClose(t *testing.T) {
	q := NewPriorityQueue()
	require.NoError(t, q.Push("tsk_1", 5))
	q.Close()

	id, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "tsk_1", id)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPriorityQueueLen(t *testing.T) {
	q := NewPriorityQueue()
	assert.Equal(t, 0, q.Len())

	require.NoError(t, q.Push("a", 1))
	require.NoError(t, q.Push("b", 2))
	assert.Equal(t, 2, q.Len())

	q.Pop()
	assert.Equal(t, 1, q.Len())
}
