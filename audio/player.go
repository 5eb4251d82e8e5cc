package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player queues raw PCM16LE for the speaker. Write never blocks on the
// device; Reset silences it immediately and discards everything queued.
type Player interface {
	Write(pcm16 []byte) error
	Reset() error
	Close() error
}

type otoPlayer struct {
	ctx *oto.Context

	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	player  *oto.Player
	playing bool
	closed  bool
}

// NewPlayer opens the default output device at the given rate. The call
// blocks until the audio backend is ready.
func NewPlayer(sampleRate, channels int) (Player, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		// ~100ms of audio; small enough that an interruption cuts off
		// quickly, large enough to ride out scheduling jitter.
		BufferSize: sampleRate * channels * 2 / 10,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	p := &otoPlayer{ctx: ctx}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

func (p *otoPlayer) Write(pcm16 []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("player closed")
	}

	p.buf = append(p.buf, pcm16...)
	if !p.playing {
		p.playing = true
		p.player = p.ctx.NewPlayer(p)
		p.player.Play()
	}
	p.cond.Signal()
	return nil
}

// Read feeds the device. Blocks until data arrives so the device never
// starves mid chunk; after Close it pads with silence so oto drains.
func (p *otoPlayer) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed && len(p.buf) == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}

	n := copy(buf, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

func (p *otoPlayer) Reset() error {
	p.mu.Lock()
	p.buf = p.buf[:0]
	if p.player == nil || !p.playing {
		p.mu.Unlock()
		return nil
	}
	p.playing = false
	player := p.player
	p.player = nil
	p.mu.Unlock()

	// Pause first so audio stops now, then drop oto's internal buffer.
	player.Pause()
	if err := player.Reset(); err != nil {
		player.Close()
		return err
	}
	return player.Close()
}

func (p *otoPlayer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	player := p.player
	p.player = nil
	p.mu.Unlock()

	if player != nil {
		return player.Close()
	}
	return nil
}
