package corosched

import "time"

// SystemCall is the tagged variant a task sends to the scheduler through
// TaskContext.Syscall. The set of implementations is closed to the eight
// variants below; the scheduler dispatches on concrete type with a type
// switch rather than a method, since the handling logic belongs to the
// scheduler, not to the call value.
type SystemCall interface {
	isSystemCall()
}

// Log is informational and causes no state change beyond being written to
// the scheduler's component logger (not the ActivityLog). The task is
// requeued immediately after.
type Log struct {
	Message string
}

// Sleep suspends the calling task until the scheduler's clock advances by at
// least Duration.
type Sleep struct {
	Duration time.Duration
}

// Yield requeues the calling task at the tail of its priority band.
type Yield struct{}

// Done signals that the calling task is terminating. The scheduler reaps it:
// joins its coroutine, records Finished or Failed, wakes its join-waiters,
// and appends it to the done-order.
type Done struct{}

// Join suspends the calling task until Target terminates. If Target has
// already terminated, or is unknown to the scheduler, Join returns
// immediately.
type Join struct {
	Target TaskId
}

// JoinTimeout suspends the calling task until Target terminates or Duration
// elapses, whichever comes first.
type JoinTimeout struct {
	Target   TaskId
	Duration time.Duration
}

// Cancel requests immediate termination of Target. If Target is unknown, the
// call is silently ignored.
type Cancel struct {
	Target TaskId
}

// IoWait suspends the calling task until an external signal on IoId arrives,
// either through the token channel or the readiness poller.
type IoWait struct {
	IoId uint64
}

func (Log) isSystemCall()         {}
func (Sleep) isSystemCall()       {}
func (Yield) isSystemCall()       {}
func (Done) isSystemCall()        {}
func (Join) isSystemCall()        {}
func (JoinTimeout) isSystemCall() {}
func (Cancel) isSystemCall()      {}
func (IoWait) isSystemCall()      {}
