package live

import (
	"sync"

	"verbal/pcm"
)

// FakeStream replays a scripted sequence of events and records what was
// sent to it. Used by session tests and by -test mode.
type FakeStream struct {
	events  chan Event
	err     error
	mu      sync.Mutex
	sent    []pcm.Chunk
	closed  bool
	sendErr error
}

func NewFake(script []Event, err error) *FakeStream {
	f := &FakeStream{
		events: make(chan Event, len(script)+1),
		err:    err,
	}
	for _, ev := range script {
		f.events <- ev
	}
	close(f.events)
	return f
}

func (f *FakeStream) Send(chunk pcm.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, chunk)
	return nil
}

func (f *FakeStream) Events() <-chan Event { return f.events }

func (f *FakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FakeStream) Err() error { return f.err }

func (f *FakeStream) Sent() []pcm.Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pcm.Chunk(nil), f.sent...)
}

func (f *FakeStream) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeStream) FailSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}
