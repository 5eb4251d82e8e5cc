package playback

import (
	"encoding/base64"
	"sort"
	"testing"
	"time"

	"verbal/pcm"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

type fakeSink struct {
	writes [][]byte
	resets int
	err    error
}

func (s *fakeSink) Write(p []byte) error { s.writes = append(s.writes, p); return s.err }
func (s *fakeSink) Reset() error         { s.resets++; return nil }

// pending lets tests fire completion callbacks by hand.
type pending struct {
	fns []func()
}

func (p *pending) after(d time.Duration, fn func()) func() bool {
	p.fns = append(p.fns, fn)
	return func() bool { return true }
}

func newTestScheduler() (*Scheduler, *fakeClock, *fakeSink, *pending) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	p := &pending{}
	s := NewScheduler(clock, sink)
	s.after = p.after
	return s, clock, sink, p
}

// chunk builds a wire chunk lasting the given number of milliseconds.
func chunk(t *testing.T, ms int) string {
	t.Helper()
	samples := pcm.PlaybackRate * ms / 1000
	return base64.StdEncoding.EncodeToString(make([]byte, samples*2))
}

func startTimes(s *Scheduler) []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]time.Duration, len(ids))
	for i, id := range ids {
		out[i] = s.active[id].startAt
	}
	return out
}

func TestGaplessScheduling(t *testing.T) {
	s, clock, _, _ := newTestScheduler()
	clock.now = 2 * time.Second

	for _, ms := range []int{100, 250, 40} {
		if err := s.Enqueue(chunk(t, ms)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	t0 := 2 * time.Second
	want := []time.Duration{t0, t0 + 100*time.Millisecond, t0 + 350*time.Millisecond}
	got := startTimes(s)
	if len(got) != len(want) {
		t.Fatalf("got %d sources, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source %d starts at %v, want %v", i, got[i], want[i])
		}
	}
	if s.NextStart() != t0+390*time.Millisecond {
		t.Errorf("NextStart = %v, want %v", s.NextStart(), t0+390*time.Millisecond)
	}
}

func TestEnqueueAfterDrainUsesClock(t *testing.T) {
	s, clock, _, _ := newTestScheduler()

	if err := s.Enqueue(chunk(t, 100)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	// The queue drained long ago; the next chunk must not start in the past.
	clock.now = 5 * time.Second
	if err := s.Enqueue(chunk(t, 100)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if s.NextStart() != 5*time.Second+100*time.Millisecond {
		t.Errorf("NextStart = %v, want %v", s.NextStart(), 5*time.Second+100*time.Millisecond)
	}
}

func TestInterruptIsIdempotent(t *testing.T) {
	s, _, sink, _ := newTestScheduler()
	for i := 0; i < 3; i++ {
		if err := s.Enqueue(chunk(t, 100)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	s.Interrupt()
	s.Interrupt()

	if s.Playing() {
		t.Error("still playing after interrupt")
	}
	if s.NextStart() != 0 {
		t.Errorf("NextStart = %v, want 0", s.NextStart())
	}
	if sink.resets != 2 {
		t.Errorf("sink resets = %d, want 2", sink.resets)
	}
}

func TestInterruptThenEnqueueSchedulesFromClock(t *testing.T) {
	s, clock, _, _ := newTestScheduler()
	if err := s.Enqueue(chunk(t, 500)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	clock.now = 200 * time.Millisecond
	s.Interrupt()

	if err := s.Enqueue(chunk(t, 100)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	got := startTimes(s)
	if len(got) != 1 || got[0] != 200*time.Millisecond {
		t.Errorf("start times = %v, want [200ms]", got)
	}
}

func TestDecodeFailureLeavesScheduleUnchanged(t *testing.T) {
	s, _, sink, _ := newTestScheduler()

	if err := s.Enqueue(chunk(t, 100)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Enqueue("!!not base64!!"); err == nil {
		t.Fatal("malformed chunk accepted")
	}
	if err := s.Enqueue(chunk(t, 100)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if s.NextStart() != 200*time.Millisecond {
		t.Errorf("NextStart = %v, want 200ms", s.NextStart())
	}
	if len(sink.writes) != 2 {
		t.Errorf("sink writes = %d, want 2", len(sink.writes))
	}
}

func TestNaturalCompletionRemovesSource(t *testing.T) {
	s, _, _, p := newTestScheduler()
	if err := s.Enqueue(chunk(t, 100)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !s.Playing() {
		t.Fatal("not playing after enqueue")
	}

	p.fns[0]()
	if s.Playing() {
		t.Error("still playing after completion")
	}

	// Interrupt after natural completion is a no-op, not an error.
	s.Interrupt()
	if s.NextStart() != 0 {
		t.Errorf("NextStart = %v, want 0", s.NextStart())
	}
}
