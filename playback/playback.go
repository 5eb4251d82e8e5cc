// Package playback schedules decoded audio chunks for gapless output.
//
// Chunks arrive faster than real time while the interviewer speaks. Each
// one is stamped with a start time on a monotonic clock so consecutive
// chunks play back to back, and a barge-in silences everything at once.
package playback

import (
	"sync"
	"time"

	"verbal/log"
	"verbal/pcm"
)

// Clock reads a monotonic time, zero at session start.
type Clock interface {
	Now() time.Duration
}

type wallClock struct {
	start time.Time
}

func (c wallClock) Now() time.Duration { return time.Since(c.start) }

// NewClock returns a Clock whose zero is the moment of the call.
func NewClock() Clock {
	return wallClock{start: time.Now()}
}

// Sink receives raw PCM16LE at the playback rate. Write queues audio
// behind whatever is already buffered; Reset discards everything queued
// and silences the device immediately.
type Sink interface {
	Write(pcm16 []byte) error
	Reset() error
}

type source struct {
	startAt  time.Duration
	duration time.Duration
	stop     func() bool
}

// Scheduler tracks the set of currently audible sources and the time
// the next chunk should begin.
type Scheduler struct {
	mu        sync.Mutex
	clock     Clock
	sink      Sink
	nextStart time.Duration
	active    map[int]*source
	nextID    int

	// after is swapped for a manual trigger in tests.
	after func(d time.Duration, fn func()) func() bool
}

func NewScheduler(clock Clock, sink Sink) *Scheduler {
	return &Scheduler{
		clock:  clock,
		sink:   sink,
		active: make(map[int]*source),
		after: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
}

// Enqueue decodes one wire chunk and schedules it directly after the
// last scheduled chunk, or immediately if the queue has drained. A
// malformed chunk is dropped without touching scheduling state.
func (s *Scheduler) Enqueue(data string) error {
	raw, err := pcm.Decode(data)
	if err != nil {
		log.Warnf("playback: dropping chunk: %v", err)
		return err
	}
	frame, err := pcm.FrameFromPCM16(raw, pcm.PlaybackRate, pcm.Channels)
	if err != nil {
		log.Warnf("playback: dropping chunk: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	startAt := s.nextStart
	if now > startAt {
		startAt = now
	}
	if err := s.sink.Write(frame.PCM16()); err != nil {
		log.Warnf("playback: sink write failed: %v", err)
		return err
	}

	id := s.nextID
	s.nextID++
	src := &source{startAt: startAt, duration: frame.Duration()}
	src.stop = s.after(startAt+frame.Duration()-now, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	})
	s.active[id] = src
	s.nextStart = startAt + frame.Duration()
	return nil
}

// Interrupt force-stops every active source and rewinds the schedule so
// the next chunk plays relative to the real clock. Safe to call at any
// time, including twice in a row or with nothing playing.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	for id, src := range s.active {
		src.stop()
		delete(s.active, id)
	}
	s.nextStart = 0
	s.mu.Unlock()

	if err := s.sink.Reset(); err != nil {
		log.Warnf("playback: sink reset failed: %v", err)
	}
}

// Playing reports whether any source is still audible.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// NextStart exposes the schedule head for the status line.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
