package corosched

// TaskContext is the handle a running task body uses to talk to the
// scheduler. It carries the task's id, a producer endpoint of the syscall
// channel, and the coroutine's cancel signal; tasks never touch scheduler
// state directly.
//
// Every Syscall call except Done blocks the calling goroutine until the
// dispatch loop has dequeued and acted on the call, or until the task is
// cancelled — whichever happens first. Done returns as soon as it is sent. A task body MUST check the returned canceled
// flag and return promptly when it is true; this is the only way a
// cooperative goroutine-backed coroutine can honor Cancel's "no further
// syscalls observed" contract.
type TaskContext struct {
	tid      TaskId
	ch       *syscallChannel
	resumeCh chan struct{}
	cancelCh <-chan struct{}
}

func newTaskContext(tid TaskId, ch *syscallChannel, cancelCh <-chan struct{}) *TaskContext {
	return &TaskContext{
		tid:      tid,
		ch:       ch,
		resumeCh: make(chan struct{}, 1),
		cancelCh: cancelCh,
	}
}

// Tid returns the context's owning task id.
func (c *TaskContext) Tid() TaskId {
	return c.tid
}

// Syscall sends (tid, call) to the scheduler and yields the coroutine until
// the scheduler resumes it — either because the call was one that requeues
// immediately, or because whatever it suspended on (a sleep, a join, an
// io-wait) later completed. Canceled is true if the task was cancelled
// before or while waiting; the caller must return without issuing further
// syscalls.
func (c *TaskContext) Syscall(call SystemCall) (canceled bool) {
	select {
	case <-c.cancelCh:
		return true
	default:
	}
	c.ch.send(c.tid, call)
	if _, ok := call.(Done); ok {
		// Nothing resumes a reaped task; the caller is expected to return
		// immediately after this call.
		return false
	}
	select {
	case <-c.resumeCh:
		return false
	case <-c.cancelCh:
		return true
	}
}

// YieldNow is equivalent to Syscall(Yield{}).
func (c *TaskContext) YieldNow() (canceled bool) {
	return c.Syscall(Yield{})
}

// resume wakes a task blocked in Syscall. Called only from the dispatch
// loop.
func (c *TaskContext) resume() {
	select {
	case c.resumeCh <- struct{}{}:
	default:
	}
}
