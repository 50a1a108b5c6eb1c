package notify

import (
	"testing"
	"time"
)

func newTestCenter(ttl time.Duration, max int) (*Center, *time.Time) {
	c := NewCenter(ttl, max)
	clock := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestPushAndDrain(t *testing.T) {
	c, _ := newTestCenter(0, 10)
	c.Info("one")
	c.Error("two")

	got := c.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Message != "one" || got[1].Level != LevelError {
		t.Errorf("unexpected order or level: %+v", got)
	}
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Error("expected distinct non-empty IDs")
	}
	if again := c.Drain(); len(again) != 0 {
		t.Errorf("expected empty queue after drain, got %d", len(again))
	}
}

func TestQueuedEntriesNeverExpire(t *testing.T) {
	c, clock := newTestCenter(3*time.Second, 10)
	c.Success("done")
	*clock = clock.Add(time.Minute)

	got := c.Drain()
	if len(got) != 1 || got[0].Message != "done" {
		t.Errorf("expected the unseen entry to survive the TTL, got %+v", got)
	}
}

func TestShownEntriesExpire(t *testing.T) {
	c, clock := newTestCenter(3*time.Second, 10)
	c.Info("old")
	c.Drain()
	*clock = clock.Add(2 * time.Second)
	c.Success("new")
	c.Drain()
	c.Info("queued")

	*clock = clock.Add(2 * time.Second)
	var got []string
	for _, n := range c.Active() {
		got = append(got, n.Message)
	}
	if len(got) != 2 || got[0] != "new" || got[1] != "queued" {
		t.Errorf("expected [new queued], got %v", got)
	}
}

func TestZeroTTLForgetsDrained(t *testing.T) {
	c, _ := newTestCenter(0, 10)
	c.Info("gone")
	c.Drain()
	if got := c.Active(); len(got) != 0 {
		t.Errorf("expected nothing active, got %+v", got)
	}
}

func TestBoundedQueueDropsOldest(t *testing.T) {
	c, _ := newTestCenter(0, 2)
	c.Info("a")
	c.Info("b")
	c.Info("c")

	got := c.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got[0].Message != "b" || got[1].Message != "c" {
		t.Errorf("expected [b c], got [%s %s]", got[0].Message, got[1].Message)
	}
}

func TestLevelString(t *testing.T) {
	if LevelError.String() != "error" || LevelInfo.String() != "info" {
		t.Error("unexpected level names")
	}
}
