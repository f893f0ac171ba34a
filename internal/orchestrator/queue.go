package orchestrator

import (
	"container/heap"
	"sync"
)

// queueItem is one queued task reference.
type queueItem struct {
	taskID   string
	priority int
	seq      uint64
}

// itemHeap orders items by descending priority; within a priority, first-in
// first-out by admission sequence.
type itemHeap []queueItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(queueItem)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityQueue is the pending-task admission queue: higher numeric priority
// is serviced first, equal priority FIFO by submission order. Pop blocks
// until an item is available or the queue is closed.
//
// The queue holds only task IDs; the task store remains the single source of
// truth for task state, so a stale queue entry (e.g. a task cancelled while
// pending) is harmless: the worker's claim on it simply fails.
type PriorityQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  itemHeap
	seq    uint64
	closed bool
}

// NewPriorityQueue creates an empty queue.
func NewPriorityQueue() *PriorityQueue {
	q := &PriorityQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push admits a task reference. Returns ErrQueueClosed after Close.
func (q *PriorityQueue) Push(taskID string, priority int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.seq++
	heap.Push(&q.items, queueItem{taskID: taskID, priority: priority, seq: q.seq})
	q.cond.Signal()

	return nil
}

// Pop removes and returns the highest-priority task reference, blocking while
// the queue is empty. The second return value is false once the queue has
// been closed and drained.
func (q *PriorityQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return "", false
	}

	item := heap.Pop(&q.items).(queueItem)
	return item.taskID, true
}

// Len returns the number of queued references.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further pushes and unblocks waiting consumers once the
// remaining items are drained.
func (q *PriorityQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}
