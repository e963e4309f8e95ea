package corosched

// taskTable holds every live task keyed by id, plus the permanent
// terminal-state record for every task that has been reaped. A tid is never
// present in both at once, and once recorded terminal it is never removed
// or downgraded.
type taskTable struct {
	live     map[TaskId]*liveTask
	ctx      map[TaskId]*TaskContext
	terminal map[TaskId]TerminalState
}

func newTaskTable() *taskTable {
	return &taskTable{
		live:     make(map[TaskId]*liveTask),
		ctx:      make(map[TaskId]*TaskContext),
		terminal: make(map[TaskId]TerminalState),
	}
}

func (t *taskTable) insert(task *liveTask, ctx *TaskContext) {
	t.live[task.tid] = task
	t.ctx[task.tid] = ctx
}

func (t *taskTable) get(tid TaskId) (*liveTask, bool) {
	task, ok := t.live[tid]
	return task, ok
}

func (t *taskTable) context(tid TaskId) (*TaskContext, bool) {
	ctx, ok := t.ctx[tid]
	return ctx, ok
}

func (t *taskTable) isLive(tid TaskId) bool {
	_, ok := t.live[tid]
	return ok
}

// reap removes tid from the live table and records state permanently. A
// tid that already has a terminal state keeps it: a later reap never
// changes it.
func (t *taskTable) reap(tid TaskId, state TerminalState) {
	delete(t.live, tid)
	delete(t.ctx, tid)
	if _, settled := t.terminal[tid]; settled {
		return
	}
	t.terminal[tid] = state
}

// state reports a tid's current state: Running if live, its recorded
// terminal state if reaped, or ok=false if the scheduler has never heard of
// it.
func (t *taskTable) state(tid TaskId) (state TerminalState, ok bool) {
	if t.isLive(tid) {
		return Running, true
	}
	if s, terminal := t.terminal[tid]; terminal {
		return s, true
	}
	return 0, false
}

func (t *taskTable) len() int {
	return len(t.live)
}
