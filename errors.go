package corosched

import "errors"

var (
	// ErrStarvation is recorded when the syscall channel's recv_timeout
	// elapses while tasks are still live in the TaskTable. The dispatch
	// loop exits; Run's returned done-order is partial.
	ErrStarvation = errors.New("corosched: schedule starvation: idle timeout elapsed with tasks still live")

	// ErrChannelDisconnect is recorded when the syscall channel is closed
	// out from under the dispatch loop. Treated as end-of-input.
	ErrChannelDisconnect = errors.New("corosched: syscall channel disconnected")

	// ErrAlreadyRunning is the panic value Run raises when the scheduler's
	// dispatch loop has already been started. The scheduler contract never
	// returns an error from the run itself — only the deterministic
	// done-order — so a second Run is a programming error, not a runtime
	// condition a caller recovers from.
	ErrAlreadyRunning = errors.New("corosched: scheduler is already running")
)

// TaskPanic wraps the value recovered from a task body's panic. It is never
// returned from Run; reapDone stores it as the cause of a Failed terminal
// state, retrievable by calling Cause on the scheduler after a task fails.
type TaskPanic struct {
	Tid TaskId
	// Cause is the *coro.PanicValue recovered from the task body, carrying
	// the panic value and the stack at the point it was recovered.
	Cause error
}

func (e *TaskPanic) Error() string {
	return "corosched: task " + e.Tid.String() + " panicked: " + e.Cause.Error()
}

func (e *TaskPanic) Unwrap() error {
	return e.Cause
}
