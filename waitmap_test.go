package corosched

import (
	"reflect"
	"testing"
)

func TestWaitMap_CompleteReturnsWaitersInRegistrationOrder(t *testing.T) {
	w := NewWaitMap()
	w.WaitFor(100, 1)
	w.WaitFor(100, 2)
	w.WaitFor(100, 3)

	got := w.Complete(100)
	want := []TaskId{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got := w.Complete(100); got != nil {
		t.Fatalf("expected Complete to be empty after draining, got %v", got)
	}
}

func TestWaitMap_CompleteIoIsolatesByIoId(t *testing.T) {
	w := NewWaitMap()
	w.WaitIo(5, 1)
	w.WaitIo(6, 2)

	got := w.CompleteIo(5)
	if !reflect.DeepEqual(got, []TaskId{1}) {
		t.Fatalf("got %v", got)
	}
	if got := w.CompleteIo(6); !reflect.DeepEqual(got, []TaskId{2}) {
		t.Fatalf("got %v", got)
	}
}

func TestWaitMap_RemoveWaiterIsTheTimeoutRaceGuard(t *testing.T) {
	w := NewWaitMap()
	w.WaitFor(100, 1)
	w.WaitFor(100, 2)

	if !w.RemoveWaiter(100, 1) {
		t.Fatal("expected RemoveWaiter to find a registered waiter")
	}
	if w.RemoveWaiter(100, 1) {
		t.Fatal("expected a second RemoveWaiter for the same waiter to report false")
	}

	// The natural join wake must not re-deliver the already-timed-out waiter.
	got := w.Complete(100)
	want := []TaskId{2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWaitMap_RemoveWaiterOnUnknownTargetReportsFalse(t *testing.T) {
	w := NewWaitMap()
	if w.RemoveWaiter(999, 1) {
		t.Fatal("expected false for a target with no registered waiters")
	}
}

func TestWaitMap_HasIoWaiters(t *testing.T) {
	w := NewWaitMap()
	if w.HasIoWaiters() {
		t.Fatal("expected no io waiters on a fresh WaitMap")
	}
	w.WaitIo(1, 1)
	if !w.HasIoWaiters() {
		t.Fatal("expected HasIoWaiters true once a task is registered")
	}
	w.CompleteIo(1)
	if w.HasIoWaiters() {
		t.Fatal("expected HasIoWaiters false after the sole waiter drains")
	}
}
