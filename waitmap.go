package corosched

// WaitMap indexes tasks waiting on another task's termination and tasks
// waiting on an I/O readiness id. Insertion order is preserved per key so
// that Complete and CompleteIo return waiters in the order they registered.
// It is owned exclusively by the dispatch loop.
type WaitMap struct {
	joinWaiters map[TaskId][]TaskId
	ioWaiters   map[uint64][]TaskId
}

// NewWaitMap returns an empty WaitMap.
func NewWaitMap() *WaitMap {
	return &WaitMap{
		joinWaiters: make(map[TaskId][]TaskId),
		ioWaiters:   make(map[uint64][]TaskId),
	}
}

// WaitFor registers waiter as waiting for target to terminate.
func (w *WaitMap) WaitFor(target, waiter TaskId) {
	w.joinWaiters[target] = append(w.joinWaiters[target], waiter)
}

// Complete removes and returns all waiters registered on target, in
// registration order.
func (w *WaitMap) Complete(target TaskId) []TaskId {
	waiters := w.joinWaiters[target]
	delete(w.joinWaiters, target)
	return waiters
}

// WaitIo registers waiter as waiting on ioId.
func (w *WaitMap) WaitIo(ioId uint64, waiter TaskId) {
	w.ioWaiters[ioId] = append(w.ioWaiters[ioId], waiter)
}

// CompleteIo removes and returns all waiters registered on ioId, in
// registration order.
func (w *WaitMap) CompleteIo(ioId uint64) []TaskId {
	waiters := w.ioWaiters[ioId]
	delete(w.ioWaiters, ioId)
	return waiters
}

// HasIoWaiters reports whether any task is currently registered on an io id.
// The dispatch loop uses this to decide whether it may safely fast-forward
// the virtual clock past a pending timer without first giving a real
// readiness poller a chance to report (it must not, if a poll-mode wait is
// outstanding).
func (w *WaitMap) HasIoWaiters() bool {
	return len(w.ioWaiters) > 0
}

// RemoveWaiter removes waiter from target's join-waiter list if present,
// reporting whether it was found. This is the race guard a join-timeout
// drain uses: the timeout only makes the waiter ready if it was still
// registered, so a natural join wake and a timeout wake can never both fire
// for the same waiter.
func (w *WaitMap) RemoveWaiter(target, waiter TaskId) bool {
	list, ok := w.joinWaiters[target]
	if !ok {
		return false
	}
	for i, t := range list {
		if t == waiter {
			list = append(list[:i], list[i+1:]...)
			if len(list) == 0 {
				delete(w.joinWaiters, target)
			} else {
				w.joinWaiters[target] = list
			}
			return true
		}
	}
	return false
}
