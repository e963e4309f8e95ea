//go:build linux

package corosched

import (
	"os"
	"testing"
	"time"
)

func TestPollBridge_RegisterAndWaitOnPipe(t *testing.T) {
	b, err := newPollBridge()
	if err != nil {
		t.Fatalf("newPollBridge: %v", err)
	}
	defer b.close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if err := b.registerSource(IoSource{Fd: int(r.Fd()), Id: 99}); err != nil {
		t.Fatalf("registerSource: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Write([]byte("x"))
	}()

	ready := b.wait(time.Second)
	if len(ready) != 1 || ready[0] != 99 {
		t.Fatalf("got %v, want [99]", ready)
	}
}

func TestPollBridge_WaitTimesOutWithNothingRegistered(t *testing.T) {
	b, err := newPollBridge()
	if err != nil {
		t.Fatalf("newPollBridge: %v", err)
	}
	defer b.close()

	if ready := b.wait(10 * time.Millisecond); ready != nil {
		t.Fatalf("got %v, want nil", ready)
	}
}

func TestPollBridge_CloseIsIdempotent(t *testing.T) {
	b, err := newPollBridge()
	if err != nil {
		t.Fatalf("newPollBridge: %v", err)
	}
	b.close()
	b.close()
}
