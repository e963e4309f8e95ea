package corosched

import (
	"container/heap"
	"time"
)

// sleepEntry is one pending Sleep wake.
type sleepEntry struct {
	wakeAt time.Time
	tid    TaskId
}

type sleepHeap []sleepEntry

func (h sleepHeap) Len() int            { return len(h) }
func (h sleepHeap) Less(i, j int) bool  { return h[i].wakeAt.Before(h[j].wakeAt) }
func (h sleepHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sleepHeap) Push(x any)         { *h = append(*h, x.(sleepEntry)) }
func (h *sleepHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// timeoutEntry is one pending JoinTimeout wake.
type timeoutEntry struct {
	wakeAt time.Time
	waiter TaskId
	target TaskId
}

type timeoutHeap []timeoutEntry

func (h timeoutHeap) Len() int            { return len(h) }
func (h timeoutHeap) Less(i, j int) bool  { return h[i].wakeAt.Before(h[j].wakeAt) }
func (h timeoutHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timeoutHeap) Push(x any)         { *h = append(*h, x.(timeoutEntry)) }
func (h *timeoutHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// timerSet owns the two timer heaps the dispatch loop drains each
// iteration: sleepers (for Sleep) and timeoutWaiters (for JoinTimeout).
type timerSet struct {
	sleepers       sleepHeap
	timeoutWaiters timeoutHeap
}

func newTimerSet() *timerSet {
	return &timerSet{}
}

func (t *timerSet) addSleeper(wakeAt time.Time, tid TaskId) {
	heap.Push(&t.sleepers, sleepEntry{wakeAt: wakeAt, tid: tid})
}

func (t *timerSet) addTimeout(wakeAt time.Time, waiter, target TaskId) {
	heap.Push(&t.timeoutWaiters, timeoutEntry{wakeAt: wakeAt, waiter: waiter, target: target})
}

// popExpiredSleepers pops and returns every sleeper whose wakeAt is at or
// before now, in wake order.
func (t *timerSet) popExpiredSleepers(now time.Time) []TaskId {
	var woke []TaskId
	for t.sleepers.Len() > 0 && !t.sleepers[0].wakeAt.After(now) {
		e := heap.Pop(&t.sleepers).(sleepEntry)
		woke = append(woke, e.tid)
	}
	return woke
}

// popExpiredTimeouts pops and returns every timeout entry whose wakeAt is at
// or before now, in wake order.
func (t *timerSet) popExpiredTimeouts(now time.Time) []timeoutEntry {
	var woke []timeoutEntry
	for t.timeoutWaiters.Len() > 0 && !t.timeoutWaiters[0].wakeAt.After(now) {
		woke = append(woke, heap.Pop(&t.timeoutWaiters).(timeoutEntry))
	}
	return woke
}

// nextWake returns the earliest pending wake instant across both heaps, if
// any.
func (t *timerSet) nextWake() (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	if t.sleepers.Len() > 0 {
		earliest = t.sleepers[0].wakeAt
		found = true
	}
	if t.timeoutWaiters.Len() > 0 {
		if !found || t.timeoutWaiters[0].wakeAt.Before(earliest) {
			earliest = t.timeoutWaiters[0].wakeAt
			found = true
		}
	}
	return earliest, found
}

func (t *timerSet) isEmpty() bool {
	return t.sleepers.Len() == 0 && t.timeoutWaiters.Len() == 0
}
