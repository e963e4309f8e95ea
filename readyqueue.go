package corosched

import "container/heap"

// ReadyEntry is one runnable task's position in the ReadyQueue. Ordering is
// lower Pri first, then lower Seq first: Seq is assigned at push time from a
// monotonically increasing counter, so equal-priority entries pop in FIFO
// order.
type ReadyEntry struct {
	Pri uint8
	Seq uint64
	Tid TaskId
}

// readyHeap is the container/heap backing store for ReadyQueue, ordered so
// that the lowest Pri, then lowest Seq, is the root.
type readyHeap []ReadyEntry

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].Pri != h[j].Pri {
		return h[i].Pri < h[j].Pri
	}
	return h[i].Seq < h[j].Seq
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) {
	*h = append(*h, x.(ReadyEntry))
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// ReadyQueue is a priority + FIFO queue of runnable task ids with O(1)
// duplicate suppression: a tid already present is never pushed twice. It is
// owned exclusively by the dispatch loop and is not safe for concurrent use.
type ReadyQueue struct {
	h       readyHeap
	present map[TaskId]struct{}
}

// NewReadyQueue returns an empty ReadyQueue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{present: make(map[TaskId]struct{})}
}

// Push inserts entry unless entry.Tid is already present, in which case it
// is a no-op. This is the only push path production code should use; it
// upholds the at-most-once-in-ready invariant.
func (q *ReadyQueue) Push(entry ReadyEntry) {
	if _, ok := q.present[entry.Tid]; ok {
		return
	}
	q.present[entry.Tid] = struct{}{}
	heap.Push(&q.h, entry)
}

// ForcePush inserts entry bypassing the dedup set. It exists only to let
// tests inject a stale id to exercise the dispatch loop's liveness check; no
// production code calls it.
func (q *ReadyQueue) ForcePush(entry ReadyEntry) {
	heap.Push(&q.h, entry)
}

// Pop removes and returns the lowest-Pri, lowest-Seq entry's task id. ok is
// false if the queue is empty.
func (q *ReadyQueue) Pop() (tid TaskId, ok bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	e := heap.Pop(&q.h).(ReadyEntry)
	delete(q.present, e.Tid)
	return e.Tid, true
}

// Contains reports whether tid has a pending entry.
func (q *ReadyQueue) Contains(tid TaskId) bool {
	_, ok := q.present[tid]
	return ok
}

// Len reports the number of pending entries.
func (q *ReadyQueue) Len() int { return q.h.Len() }

// IsEmpty reports whether the queue has no pending entries.
func (q *ReadyQueue) IsEmpty() bool { return q.h.Len() == 0 }
