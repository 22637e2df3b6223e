package caller

import (
	"testing"
	"time"
)

func TestManualClockOrdersTimers(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	var fired []string
	clock.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	clock.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	clock.AfterFunc(2*time.Second, func() {
		fired = append(fired, "b")
		clock.AfterFunc(500*time.Millisecond, func() { fired = append(fired, "b2") })
	})
	stopped := clock.AfterFunc(time.Second, func() { fired = append(fired, "x") })

	if !stopped.Stop() {
		t.Fatal("Stop() on a pending timer returned false")
	}
	if stopped.Stop() {
		t.Error("second Stop() returned true")
	}

	clock.Advance(5 * time.Second)

	want := []string{"a", "b", "b2", "c"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}

	if got := clock.Now(); !got.Equal(start.Add(5 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(5*time.Second))
	}
	if n := clock.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
}

func TestManualClockNotDueYet(t *testing.T) {
	clock := NewManualClock(time.Time{})

	called := false
	timer := clock.AfterFunc(time.Second, func() { called = true })
	clock.Advance(999 * time.Millisecond)

	if called {
		t.Fatal("timer fired early")
	}
	if clock.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", clock.Pending())
	}

	clock.Advance(time.Millisecond)
	if !called {
		t.Fatal("timer did not fire at its deadline")
	}
	if timer.Stop() {
		t.Error("Stop() on a fired timer returned true")
	}
}
