package corosched

import (
	"sync"
	"time"

	"github.com/corotask/scheduler/internal/coro"
)

// Scheduler is the dispatch loop described in the package doc: it owns a
// ReadyQueue, WaitMap, timer heaps, and TaskTable, and drives every spawned
// task through Running, {Suspended-on-X}, and a terminal state by repeatedly
// popping the next runnable id and reacting to its next syscall.
//
// A Scheduler's core state (ready queue, wait map, timers, task table) is
// touched only by the goroutine running Run or StartOnThread's dispatch
// loop. Spawn and SpawnWithPriority must be called either before that loop
// starts, or from inside the loop's own goroutine (for example from a
// running task's own body indirectly spawning more work is not supported —
// spawn every initial task up front, per the start_on_thread barrier
// pattern).
type Scheduler struct {
	opts *options

	tasks   *taskTable
	ready   *ReadyQueue
	waits   *WaitMap
	timers  *timerSet
	syscall *syscallChannel
	io      ioBridge
	clock   Clock

	nextID uint64
	seq    uint64

	terminalCause map[TaskId]error

	mu      sync.Mutex
	started bool
	lastErr error
}

// New constructs a Scheduler. With no options it uses a VirtualClock, token
// I/O mode, a 5-second idle timeout, default priority 10, no metrics, and a
// logrus-backed ActivityLog.
func New(opts ...SchedulerOption) *Scheduler {
	o := resolveOptions(opts)

	var bridge ioBridge
	if o.ioMode == IoModePoll {
		pb, err := newPlatformPollBridge()
		if err != nil {
			bridge = newTokenBridge()
		} else {
			bridge = pb
		}
	} else {
		bridge = newTokenBridge()
	}

	return &Scheduler{
		opts:          o,
		tasks:         newTaskTable(),
		ready:         NewReadyQueue(),
		waits:         NewWaitMap(),
		timers:        newTimerSet(),
		syscall:       newSyscallChannel(),
		io:            bridge,
		clock:         o.clock,
		nextID:        1,
		terminalCause: make(map[TaskId]error),
	}
}

// Spawn starts a new task at the default priority and returns its id.
func (s *Scheduler) Spawn(f func(*TaskContext)) TaskId {
	return s.SpawnWithPriority(s.opts.defaultPriority, f)
}

// SpawnWithPriority starts a new task at the given priority (0 highest) and
// returns its id. It allocates a fresh id, starts the coroutine running
// f(ctx), and inserts the task into the TaskTable as Running. It does not
// push a ReadyEntry: the task runs until its first Syscall, and enters the
// ready queue only when that call requeues it or its wait completes.
func (s *Scheduler) SpawnWithPriority(pri uint8, f func(*TaskContext)) TaskId {
	tid := TaskId(s.nextID)
	s.nextID++

	handle := coro.NewHandle()
	ctx := newTaskContext(tid, s.syscall, handle.CancelSignal())
	handle.Run(func(<-chan struct{}) { f(ctx) })

	task := &liveTask{tid: tid, pri: pri, handle: handle}
	s.tasks.insert(task, ctx)
	// Deliberately not pushed to ready here: the goroutine is already
	// running freely toward its first Syscall call and needs no resume to
	// get there. Pushing it would leave a stale present-set entry once that
	// first call is caught by the opportunistic drain (a Sleep, Join, or
	// IoWait never requeues), silently swallowing the real wake-up push
	// later. See DESIGN.md.
	return tid
}

// TaskState reports tid's current state: Running if live, its recorded
// terminal state if reaped, or ok=false if the scheduler has never heard of
// it.
func (s *Scheduler) TaskState(tid TaskId) (state TerminalState, ok bool) {
	return s.tasks.state(tid)
}

// Cause returns the error recovered from a Failed task's coroutine panic, or
// nil if tid never failed (including if it is unknown or still running).
func (s *Scheduler) Cause(tid TaskId) error {
	return s.terminalCause[tid]
}

// ReadyLen reports the number of task ids currently in the ready queue.
func (s *Scheduler) ReadyLen() int { return s.ready.Len() }

// ReadyIsEmpty reports whether the ready queue currently has no entries.
func (s *Scheduler) ReadyIsEmpty() bool { return s.ready.IsEmpty() }

// IoHandle returns the token-mode send side of the IoBridge. It returns
// ErrTokenModeUnavailable if the scheduler is running in poll mode.
func (s *Scheduler) IoHandle() (chan<- uint64, error) {
	if ch := s.io.tokenSender(); ch != nil {
		return ch, nil
	}
	return nil, ErrTokenModeUnavailable
}

// RegisterIo registers src with a poll-mode IoBridge. It returns
// ErrPollModeUnavailable if the scheduler is running in token mode.
func (s *Scheduler) RegisterIo(src IoSource) error {
	return s.io.registerSource(src)
}

// Err returns the error that caused the dispatch loop to exit early —
// ErrStarvation or ErrChannelDisconnect — or nil if Run returned because the
// task table drained normally.
func (s *Scheduler) Err() error {
	return s.lastErr
}

// RunHandle is returned by StartOnThread: a join-handle for the dispatch
// loop running on its own goroutine.
type RunHandle struct {
	done chan []TaskId
}

// Join blocks until the dispatch loop exits and returns its done-order.
func (h *RunHandle) Join() []TaskId {
	return <-h.done
}

// Run drives the dispatch loop on the calling goroutine until the task
// table is empty or the idle timeout elapses with no progress, returning
// the ids of tasks reaped in the order they finished. It panics if called
// more than once on the same Scheduler.
func (s *Scheduler) Run() []TaskId {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		panic(ErrAlreadyRunning)
	}
	s.started = true
	s.mu.Unlock()
	return s.dispatchLoop()
}

// StartOnThread runs the dispatch loop on a dedicated goroutine. If barrier
// is non-nil, the loop waits for a receive on it before touching any
// scheduler state, so a caller can spawn every initial task synchronously
// and then close (or send on) the barrier to release the loop — preventing
// a data race between initial spawns and the dispatch loop's first
// iteration.
func (s *Scheduler) StartOnThread(barrier <-chan struct{}) *RunHandle {
	h := &RunHandle{done: make(chan []TaskId, 1)}
	go func() {
		if barrier != nil {
			<-barrier
		}
		h.done <- s.Run()
	}()
	return h
}

func (s *Scheduler) nextSeq() uint64 {
	seq := s.seq
	s.seq++
	return seq
}

func (s *Scheduler) pushReady(tid TaskId, pri uint8) {
	s.ready.Push(ReadyEntry{Pri: pri, Seq: s.nextSeq(), Tid: tid})
}

// pushReadyIfLive re-enqueues tid using its recorded priority, if it is
// still present in the TaskTable.
func (s *Scheduler) pushReadyIfLive(tid TaskId) {
	task, ok := s.tasks.get(tid)
	if !ok {
		return
	}
	s.pushReady(tid, task.pri)
}

func (s *Scheduler) dispatchLoop() []TaskId {
	var doneOrder []TaskId

	for s.tasks.len() > 0 {
		iterStart := time.Now()

		s.drainExpiredTimers()
		s.drainPendingSyscalls(&doneOrder)
		s.drainIoReadiness()

		tid, ok := s.ready.Pop()
		if !ok {
			wake, hasTimer := s.timers.nextWake()

			// The idle-jump optimization (fast-forwarding the virtual clock
			// straight to the next timer) is only sound when no task is
			// blocked on a real readiness source: a poll-mode IoWait needs
			// the dispatch loop to actually call io.wait so the OS poller
			// gets a chance to run, not have the wait skipped because a
			// timer happened to be pending too.
			if hasTimer && !s.waits.HasIoWaiters() {
				now := s.clock.Now()
				if wake.After(now) {
					s.clock.Advance(wake.Sub(now))
				}
				continue
			}

			waitTimeout := s.opts.idleTimeout
			if hasTimer {
				if until := wake.Sub(s.clock.Now()); until > 0 && until < waitTimeout {
					waitTimeout = until
				}
			}

			ids := s.io.wait(waitTimeout)
			if len(ids) == 0 {
				if hasTimer {
					// Nothing woke early; the next iteration's timer drain
					// makes progress once wake is reached.
					continue
				}
				s.lastErr = ErrStarvation
				break
			}
			for _, id := range ids {
				for _, w := range s.waits.CompleteIo(id) {
					s.pushReadyIfLive(w)
				}
			}
			continue
		}

		if !s.tasks.isLive(tid) {
			// Stale id: left behind by ForcePush, or by a Cancel that reaped
			// the task while its id was still queued. Discard and continue.
			continue
		}

		if ctx, ok := s.tasks.context(tid); ok {
			ctx.resume()
		}

		msg, ok := s.syscall.recvTimeout(s.opts.idleTimeout)
		if !ok {
			if s.syscall.isClosed() {
				s.lastErr = ErrChannelDisconnect
			} else {
				s.lastErr = ErrStarvation
			}
			break
		}

		if msg.tid != tid && s.tasks.isLive(tid) {
			s.pushReadyIfLive(tid)
		}
		s.applySyscall(msg, &doneOrder)

		s.opts.metrics.observeDispatch(time.Since(iterStart).Seconds())
		s.opts.metrics.setReadyDepth(s.ready.Len())
		s.opts.metrics.setLiveTasks(s.tasks.len())
	}

	return doneOrder
}

func (s *Scheduler) drainExpiredTimers() {
	now := s.clock.Now()
	for _, tid := range s.timers.popExpiredSleepers(now) {
		s.pushReadyIfLive(tid)
	}
	for _, te := range s.timers.popExpiredTimeouts(now) {
		if s.waits.RemoveWaiter(te.target, te.waiter) {
			s.pushReadyIfLive(te.waiter)
		}
	}
}

func (s *Scheduler) drainPendingSyscalls(doneOrder *[]TaskId) {
	for {
		msg, ok := s.syscall.tryRecv()
		if !ok {
			return
		}
		s.applySyscall(msg, doneOrder)
	}
}

func (s *Scheduler) drainIoReadiness() {
	for _, id := range s.io.drainReady() {
		for _, w := range s.waits.CompleteIo(id) {
			s.pushReadyIfLive(w)
		}
	}
}

// applySyscall implements the §4.9 handling contract for one received
// (tid, call) pair.
func (s *Scheduler) applySyscall(msg syscallMsg, doneOrder *[]TaskId) {
	tid := msg.tid
	requeue := false

	switch call := msg.call.(type) {
	case Log:
		s.opts.logger.WithField("tid", tid).Info(call.Message)
		requeue = true
	case Sleep:
		s.timers.addSleeper(s.clock.Now().Add(call.Duration), tid)
	case Yield:
		requeue = true
	case Done:
		s.reapDone(tid, doneOrder)
	case Join:
		requeue = s.applyJoin(tid, call.Target)
	case JoinTimeout:
		requeue = s.applyJoin(tid, call.Target)
		s.timers.addTimeout(s.clock.Now().Add(call.Duration), tid, call.Target)
	case Cancel:
		s.applyCancel(call.Target, doneOrder)
		requeue = true
	case IoWait:
		s.waits.WaitIo(call.IoId, tid)
	}

	if requeue {
		s.pushReadyIfLive(tid)
	}
}

// applyJoin records tid as waiting on target if target is live, and reports
// whether the caller should be requeued immediately (target already
// terminal, or unknown).
func (s *Scheduler) applyJoin(tid, target TaskId) (requeue bool) {
	if s.tasks.isLive(target) {
		s.waits.WaitFor(target, tid)
		return false
	}
	return true
}

func (s *Scheduler) reapDone(tid TaskId, doneOrder *[]TaskId) {
	task, ok := s.tasks.get(tid)
	if !ok {
		return
	}
	err := task.handle.Join()
	state := Finished
	if err != nil {
		state = Failed
		err = &TaskPanic{Tid: tid, Cause: err}
		s.terminalCause[tid] = err
	}
	s.tasks.reap(tid, state)
	s.opts.metrics.recordDone(state == Failed)

	if state == Failed {
		s.opts.activityLog.Emit(TaskEvent{Kind: TaskFailed, Tid: tid, Err: err})
	} else {
		s.opts.activityLog.Emit(TaskEvent{Kind: TaskFinished, Tid: tid})
	}

	for _, w := range s.waits.Complete(tid) {
		s.pushReadyIfLive(w)
	}
	*doneOrder = append(*doneOrder, tid)
}

// applyCancel cancels target's coroutine and joins it synchronously,
// recording Finished regardless of the join result — a deliberate
// cancellation is never a failure. Unknown targets are silently ignored.
func (s *Scheduler) applyCancel(target TaskId, doneOrder *[]TaskId) {
	task, ok := s.tasks.get(target)
	if !ok {
		return
	}
	task.handle.Cancel()
	_ = task.handle.Join()
	s.tasks.reap(target, Finished)
	s.opts.metrics.recordDone(false)

	for _, w := range s.waits.Complete(target) {
		s.pushReadyIfLive(w)
	}
	*doneOrder = append(*doneOrder, target)
}
