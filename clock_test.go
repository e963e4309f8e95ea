package corosched

import (
	"testing"
	"time"
)

func TestVirtualClock_NeverAdvancesOnItsOwn(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewVirtualClock(start)

	time.Sleep(5 * time.Millisecond)
	if !c.Now().Equal(start) {
		t.Fatalf("expected VirtualClock to stay at %v, got %v", start, c.Now())
	}
}

func TestVirtualClock_AdvanceMovesNowForward(t *testing.T) {
	c := NewVirtualClock(time.Unix(1000, 0))
	c.Advance(5 * time.Second)
	want := time.Unix(1005, 0)
	if !c.Now().Equal(want) {
		t.Fatalf("got %v, want %v", c.Now(), want)
	}
}

func TestVirtualClock_AdvanceIgnoresNonPositiveDeltas(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewVirtualClock(start)
	c.Advance(0)
	c.Advance(-time.Second)
	if !c.Now().Equal(start) {
		t.Fatalf("expected non-positive Advance to be a no-op, got %v", c.Now())
	}
}

func TestWallClock_AdvanceIsNoOp(t *testing.T) {
	c := WallClock{}
	before := c.Now()
	c.Advance(time.Hour)
	after := c.Now()
	if after.Before(before) {
		t.Fatal("expected WallClock.Now to be monotonically non-decreasing")
	}
	if after.Sub(before) > time.Second {
		t.Fatalf("expected Advance to be a no-op, jumped by %v", after.Sub(before))
	}
}
