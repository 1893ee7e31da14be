package timer

import (
	"testing"
	"time"

	"github.com/robalobadob/alchemy/internal/clock"
)

func newMock() *clock.Mock {
	return clock.NewMock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
}

func TestElapsedAndRemaining(t *testing.T) {
	c := newMock()
	tm := New(c, 60)
	tm.Start()

	c.Advance(1500 * time.Millisecond)
	if tm.Elapsed() != 1 {
		t.Fatalf("expected floor to 1s, got %d", tm.Elapsed())
	}
	if tm.Remaining() != 59 {
		t.Fatalf("expected 59 remaining, got %d", tm.Remaining())
	}

	c.Advance(2 * time.Minute)
	if tm.Remaining() != 0 || !tm.Expired() {
		t.Fatalf("expected expiry, remaining=%d", tm.Remaining())
	}
}

func TestPauseResumeHasNoJump(t *testing.T) {
	c := newMock()
	tm := New(c, 600)
	tm.Start()
	c.Advance(10 * time.Second)

	if !tm.Pause() {
		t.Fatal("expected pause to transition")
	}
	c.Advance(time.Hour)
	if tm.Elapsed() != 10 {
		t.Fatalf("elapsed must freeze while paused, got %d", tm.Elapsed())
	}
	if !tm.Resume() {
		t.Fatal("expected resume to transition")
	}
	if tm.Elapsed() != 10 {
		t.Fatalf("resume must not jump, got %d", tm.Elapsed())
	}
	c.Advance(3 * time.Second)
	if tm.Elapsed() != 13 {
		t.Fatalf("expected 13, got %d", tm.Elapsed())
	}
}

func TestImmediatePauseResumeAdvancesZero(t *testing.T) {
	c := newMock()
	tm := New(c, 600)
	tm.Start()
	c.Advance(5 * time.Second)
	before := tm.Elapsed()
	tm.Pause()
	tm.Resume()
	if tm.Elapsed() != before {
		t.Fatalf("expected %d, got %d", before, tm.Elapsed())
	}
}

func TestElapsedMonotonicAcrossFlips(t *testing.T) {
	c := newMock()
	tm := New(c, 600)
	tm.Start()
	last := 0
	for i := 0; i < 20; i++ {
		c.Advance(700 * time.Millisecond)
		if i%3 == 0 {
			tm.Pause()
		} else {
			tm.Resume()
		}
		if e := tm.Elapsed(); e < last {
			t.Fatalf("elapsed decreased from %d to %d at step %d", last, e, i)
		} else {
			last = e
		}
	}
}

func TestRestoreElapsed(t *testing.T) {
	c := newMock()
	tm := New(c, 600)
	tm.RestoreElapsed(42)
	if tm.Elapsed() != 42 {
		t.Fatalf("expected 42, got %d", tm.Elapsed())
	}
	c.Advance(time.Second)
	if tm.Elapsed() != 43 {
		t.Fatalf("expected 43, got %d", tm.Elapsed())
	}
}

func TestInertTimer(t *testing.T) {
	c := newMock()
	tm := NewInert(c)
	tm.Start()
	c.Advance(time.Hour)
	if tm.Elapsed() != 0 || tm.Expired() || tm.Pause() || tm.Resume() {
		t.Fatal("inert timer must not count, expire or pause")
	}
}

func TestStopFreezes(t *testing.T) {
	c := newMock()
	tm := New(c, 600)
	tm.Start()
	c.Advance(7 * time.Second)
	tm.Stop()
	c.Advance(time.Minute)
	if tm.Elapsed() != 7 {
		t.Fatalf("expected frozen 7, got %d", tm.Elapsed())
	}
}
