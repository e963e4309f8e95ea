package corosched

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_NilReceiverMethodsDoNotPanic(t *testing.T) {
	var m *Metrics
	m.setReadyDepth(1)
	m.setLiveTasks(1)
	m.recordDone(true)
	m.recordDone(false)
	m.observeDispatch(0.1)
}

func TestNewMetrics_RegistersAgainstGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.setReadyDepth(3)
	m.setLiveTasks(2)
	m.recordDone(false)
	m.recordDone(true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected NewMetrics to register collectors against reg")
	}
}

func TestScheduler_WithoutMetricsNeverTouchesDefaultRegistry(t *testing.T) {
	sched := New()
	sched.Spawn(func(ctx *TaskContext) {
		ctx.Syscall(Done{})
	})
	withTimeout(t, time.Second, func() { sched.Run() })

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "corosched_") {
			t.Fatalf("found %q in the default registry without WithMetrics", f.GetName())
		}
	}
}
