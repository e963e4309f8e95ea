/*
Package corosched implements a cooperative, user-space task scheduler built
on stackful coroutines. Tasks run as goroutines and communicate with the
scheduler exclusively by emitting system calls through a TaskContext: sleep,
yield, join, join-with-timeout, cancel, I/O-wait, done, and log. The
scheduler owns a prioritized ready queue, timer heaps, a join/io wait map, an
I/O-readiness bridge, and a task table, and drives every spawned task to
completion with deterministic FIFO-within-priority ordering, timed waits,
cooperative cancellation, and panic isolation.

The dispatch loop is single-threaded: it is the sole writer of the ready
queue, wait map, timer heaps, and task table. The only concurrency surface is
the many-producer/single-consumer syscall channel fed by running tasks and,
in token I/O mode, a second many-producer/single-consumer channel fed by
external readiness sources.

A minimal program looks like:

	sched := corosched.New()
	sched.Spawn(func(ctx *corosched.TaskContext) {
		ctx.Syscall(corosched.Sleep{Duration: 10 * time.Millisecond})
		ctx.Syscall(corosched.Done{})
	})
	done := sched.Run()

Run drives the loop on the calling goroutine until the task table is empty
or the idle timeout elapses with no progress, returning the ids of tasks
reaped in the order they finished.
*/
package corosched
