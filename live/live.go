// Package live manages the bidirectional audio session with the Gemini
// Live API. The caller sends encoded microphone chunks and consumes a
// stream of typed events carrying interviewer audio, the two partial
// transcriptions and the turn boundary signals.
package live

import (
	"sync"

	"verbal/log"
	"verbal/pcm"
)

// Config describes one live session.
type Config struct {
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
}

const DefaultModel = "gemini-2.5-flash-native-audio-preview-12-2025"

// Event is one inbound server message, flattened. Any combination of
// fields may be set on a single event.
type Event struct {
	Ready        bool     // handshake acknowledged, audio may flow
	UserText     string   // partial user speech-to-text
	ModelText    string   // partial interviewer speech-to-text
	Audio        []string // base64 PCM16 payloads, in message order
	Interrupted  bool     // user barged in, silence playback now
	TurnComplete bool     // commit both transcription buffers
}

// Stream is a connected live session. Events is closed when the server
// side ends or fails; Err reports why after the close.
type Stream interface {
	Send(chunk pcm.Chunk) error
	Events() <-chan Event
	Close() error
	Err() error
}

// rawStream is the transport under a conn, fakeable in tests.
type rawStream interface {
	Send(chunk pcm.Chunk) error
	Recv() (Event, error)
	Close() error
}

type conn struct {
	raw     rawStream
	audioCh chan pcm.Chunk
	events  chan Event

	sendDone chan struct{}
	recvDone chan struct{}
	quit     chan struct{}

	mu       sync.Mutex
	err      error
	errOnce  sync.Once
	closing  bool
	sendOnce sync.Once
	dropped  int
	sent     int
	recv     int
}

func newConn(raw rawStream) *conn {
	c := &conn{
		raw:      raw,
		audioCh:  make(chan pcm.Chunk, 128),
		events:   make(chan Event, 32),
		sendDone: make(chan struct{}),
		recvDone: make(chan struct{}),
		quit:     make(chan struct{}),
	}
	go c.runSender()
	go c.runReceiver()
	return c
}

// Send queues one outbound chunk. Audio is real time, so when the queue
// is full the chunk is dropped rather than blocking the capture callback.
func (c *conn) Send(chunk pcm.Chunk) error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	if err := c.err; err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	select {
	case c.audioCh <- chunk:
	default:
		c.mu.Lock()
		c.dropped++
		n := c.dropped
		c.mu.Unlock()
		if n%50 == 1 {
			log.Warnf("live: outbound queue full, %d chunks dropped", n)
		}
	}
	return nil
}

func (c *conn) Events() <-chan Event {
	return c.events
}

// Close ends the session. Idempotent; the receiver drains on transport
// close and the Events channel is then closed.
func (c *conn) Close() error {
	c.mu.Lock()
	already := c.closing
	c.closing = true
	c.mu.Unlock()
	if already {
		return nil
	}

	close(c.quit)
	c.sendOnce.Do(func() { close(c.audioCh) })
	<-c.sendDone
	err := c.raw.Close()
	<-c.recvDone

	c.mu.Lock()
	log.LiveSessionMetrics(0, c.sent, c.recv, 0, 0)
	c.mu.Unlock()
	return err
}

func (c *conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *conn) runSender() {
	defer close(c.sendDone)
	for chunk := range c.audioCh {
		if err := c.raw.Send(chunk); err != nil {
			c.setErr(err)
			return
		}
		c.mu.Lock()
		c.sent++
		c.mu.Unlock()
	}
}

func (c *conn) runReceiver() {
	defer close(c.recvDone)
	defer close(c.events)
	for {
		ev, err := c.raw.Recv()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if !closing {
				c.setErr(err)
			}
			return
		}
		c.mu.Lock()
		c.recv++
		c.mu.Unlock()
		select {
		case c.events <- ev:
		case <-c.quit:
			return
		}
	}
}

func (c *conn) setErr(err error) {
	if err == nil {
		return
	}
	c.errOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.raw.Close()
	})
}
