package coro

import (
	"errors"
	"testing"
	"time"
)

func TestHandle_JoinReturnsNilOnCleanReturn(t *testing.T) {
	h := Start(func(<-chan struct{}) {})
	if err := h.Join(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestHandle_JoinCapturesPanic(t *testing.T) {
	h := Start(func(<-chan struct{}) {
		panic("boom")
	})
	err := h.Join()
	if err == nil {
		t.Fatal("expected Join to report the recovered panic")
	}
	var pv *PanicValue
	if !errors.As(err, &pv) {
		t.Fatalf("expected a *PanicValue, got %T", err)
	}
	if pv.Value != "boom" {
		t.Fatalf("got panic value %v, want %q", pv.Value, "boom")
	}
	if len(pv.Stack) == 0 {
		t.Fatal("expected a captured stack trace")
	}
}

func TestHandle_JoinIsIdempotent(t *testing.T) {
	h := Start(func(<-chan struct{}) {})
	first := h.Join()
	second := h.Join()
	if first != second {
		t.Fatalf("expected repeated Join calls to return the same result, got %v and %v", first, second)
	}
}

func TestHandle_CancelUnblocksBodyAtCheckIn(t *testing.T) {
	reachedCheckIn := make(chan struct{})
	returned := make(chan struct{})
	h := Start(func(cancel <-chan struct{}) {
		close(reachedCheckIn)
		<-cancel
		close(returned)
	})

	<-reachedCheckIn
	h.Cancel()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("body never observed cancellation")
	}
	if err := h.Join(); err != nil {
		t.Fatalf("expected a cooperative return to join cleanly, got %v", err)
	}
}

func TestHandle_CancelIsSafeToCallTwice(t *testing.T) {
	h := Start(func(cancel <-chan struct{}) { <-cancel })
	h.Cancel()
	h.Cancel()
	if err := h.Join(); err != nil {
		t.Fatalf("got %v", err)
	}
}

func TestNewHandleThenRun_CancelSignalValidBeforeRun(t *testing.T) {
	h := NewHandle()
	sig := h.CancelSignal()
	select {
	case <-sig:
		t.Fatal("cancel signal should not be closed before Cancel is called")
	default:
	}

	started := make(chan struct{})
	h.Run(func(cancel <-chan struct{}) {
		close(started)
		<-cancel
	})
	<-started
	h.Cancel()
	if err := h.Join(); err != nil {
		t.Fatalf("got %v", err)
	}
}
