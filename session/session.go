// Package session owns one interview: the microphone, the speaker, the
// live stream and the transcript, acquired together and torn down
// together. One Session per interview, never reused.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"verbal/audio"
	"verbal/encoder"
	"verbal/live"
	"verbal/log"
	"verbal/pcm"
	"verbal/persona"
	"verbal/playback"
	"verbal/transcript"
)

// SpeakingThreshold is the mean absolute amplitude above which a capture
// frame counts as the candidate speaking.
const SpeakingThreshold = 0.01

type State int32

const (
	Connecting State = iota
	Open
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Notes delivered to the UI. Sends never block; a consumer that misses
// one resyncs from the Transcript snapshot.
type (
	ReadyNote         struct{}
	LevelNote         struct {
		Level    float64
		Speaking bool
	}
	ModelSpeakingNote struct{ Speaking bool }
	TranscriptNote    struct {
		Lines    []string
		Progress int
	}
	ClosedNote struct{ Err error }
)

// Config for one interview session. The zero value of the injectable
// fields means real devices and a real connection.
type Config struct {
	APIKey            string
	Model             string
	Persona           persona.Persona
	SystemInstruction string
	DeviceName        string // empty means system default
	Record            bool

	// Test seams.
	AudioContext audio.Context
	Player       audio.Player
	Dial         func(ctx context.Context) (live.Stream, error)
}

type Session struct {
	cfg      Config
	audioCtx audio.Context
	capture  audio.CaptureDevice
	player   audio.Player
	stream   live.Stream
	sched    *playback.Scheduler

	state   atomic.Int32
	notes   chan any
	done    chan struct{}
	cleanup sync.Once

	mu      sync.Mutex
	ts      transcript.State
	err     error
	dropped int
	pending []byte
	flac    *encoder.FlacEncoder
}

// Start acquires the devices, dials the live service and begins
// capturing. Frames captured before the service acknowledges the setup
// are dropped; stale real-time audio is worthless. Any acquisition
// failure releases everything already acquired.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	s := &Session{
		cfg:   cfg,
		notes: make(chan any, 64),
		done:  make(chan struct{}),
	}
	s.state.Store(int32(Connecting))

	audioCtx := cfg.AudioContext
	if audioCtx == nil {
		var err error
		audioCtx, err = audio.NewContext()
		if err != nil {
			s.state.Store(int32(Errored))
			return nil, fmt.Errorf("acquire audio backend: %w", err)
		}
	}
	s.audioCtx = audioCtx

	player := cfg.Player
	if player == nil {
		var err error
		player, err = audio.NewPlayer(pcm.PlaybackRate, pcm.Channels)
		if err != nil {
			audioCtx.Close()
			s.state.Store(int32(Errored))
			return nil, fmt.Errorf("acquire speaker: %w", err)
		}
	}
	s.player = player
	s.sched = playback.NewScheduler(playback.NewClock(), player)

	var device *audio.DeviceInfo
	if cfg.DeviceName != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == cfg.DeviceName {
					device = &devices[i]
					break
				}
			}
		}
		if device == nil {
			log.Warnf("session: device %q not found, using default", cfg.DeviceName)
		}
	}

	capture, err := audioCtx.NewCapture(device, audio.CaptureConfig{
		SampleRate: pcm.CaptureRate,
		Channels:   pcm.Channels,
	})
	if err != nil {
		player.Close()
		audioCtx.Close()
		s.state.Store(int32(Errored))
		return nil, fmt.Errorf("acquire microphone: %w", err)
	}
	s.capture = capture

	if cfg.Record {
		enc, err := encoder.NewFlac()
		if err != nil {
			log.Warnf("session: recording disabled: %v", err)
		} else {
			s.flac = enc
		}
	}

	dial := cfg.Dial
	if dial == nil {
		dial = func(ctx context.Context) (live.Stream, error) {
			return live.Dial(ctx, live.Config{
				APIKey:            cfg.APIKey,
				Model:             cfg.Model,
				Voice:             cfg.Persona.Voice,
				SystemInstruction: cfg.SystemInstruction,
			})
		}
	}
	stream, err := dial(ctx)
	if err != nil {
		capture.Close()
		player.Close()
		audioCtx.Close()
		s.state.Store(int32(Errored))
		return nil, fmt.Errorf("open live session: %w", err)
	}
	s.stream = stream

	capture.SetCallback(s.onFrame)
	if err := capture.Start(); err != nil {
		s.teardown()
		s.state.Store(int32(Errored))
		return nil, fmt.Errorf("start microphone: %w", err)
	}

	go s.run()
	return s, nil
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Notes is the UI event channel. Closed after the ClosedNote.
func (s *Session) Notes() <-chan any {
	return s.notes
}

// Done unblocks when the session has fully ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Transcript snapshots the committed log.
func (s *Session) Transcript() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := append([]string(nil), s.ts.Lines...)
	return lines, s.ts.Progress
}

// Err reports why the session ended, nil for a clean close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DroppedFrames counts capture frames produced before the session was
// open.
func (s *Session) DroppedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Recording returns the FLAC archive of the candidate's microphone.
// Empty unless Record was set; call after the session ends.
func (s *Session) Recording() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flac == nil {
		return nil
	}
	return s.flac.Bytes()
}

// onFrame runs on the capture thread. It assembles fixed-size blocks,
// publishes the activity level and forwards the block when the session
// is open.
func (s *Session) onFrame(data []byte, _ uint32) {
	s.mu.Lock()
	s.pending = append(s.pending, data...)
	const blockBytes = pcm.BlockSize * 2
	var blocks [][]byte
	for len(s.pending) >= blockBytes {
		block := make([]byte, blockBytes)
		copy(block, s.pending[:blockBytes])
		s.pending = s.pending[blockBytes:]
		blocks = append(blocks, block)
	}
	s.mu.Unlock()

	for _, block := range blocks {
		samples := pcm.Samples(block)
		level := pcm.MeanAmplitude(samples)
		s.notify(LevelNote{Level: level, Speaking: level > SpeakingThreshold})

		if s.State() != Open {
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
			continue
		}

		s.archiveBlock(block)
		if err := s.stream.Send(pcm.Encode(samples)); err != nil {
			log.Warnf("session: send frame: %v", err)
		}
	}
}

func (s *Session) archiveBlock(block []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flac == nil {
		return
	}
	samples := make([]int16, len(block)/2)
	for i := range samples {
		samples[i] = int16(uint16(block[i*2]) | uint16(block[i*2+1])<<8)
	}
	if err := s.flac.EncodeBlock(samples); err != nil {
		log.Warnf("session: archive block: %v", err)
		s.flac = nil
	}
}

// run dispatches inbound events in arrival order until the stream ends.
func (s *Session) run() {
	for ev := range s.stream.Events() {
		if ev.Ready {
			s.state.CompareAndSwap(int32(Connecting), int32(Open))
			s.notify(ReadyNote{})
		}
		if ev.UserText != "" {
			s.applyEvent(transcript.AppendUser{Text: ev.UserText})
		}
		if ev.ModelText != "" {
			s.applyEvent(transcript.AppendModel{Text: ev.ModelText})
		}
		for _, chunk := range ev.Audio {
			s.sched.Enqueue(chunk)
		}
		if len(ev.Audio) > 0 {
			s.notify(ModelSpeakingNote{Speaking: true})
		}
		if ev.Interrupted {
			s.sched.Interrupt()
			s.notify(ModelSpeakingNote{Speaking: false})
		}
		if ev.TurnComplete {
			s.commitTurn()
			s.notify(ModelSpeakingNote{Speaking: false})
		}
	}

	err := s.stream.Err()
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.state.Store(int32(Errored))
	} else {
		s.state.CompareAndSwap(int32(Connecting), int32(Closed))
		s.state.CompareAndSwap(int32(Open), int32(Closed))
	}

	s.teardown()
	s.notify(ClosedNote{Err: err})
	close(s.notes)
	close(s.done)
}

func (s *Session) commitTurn() {
	s.mu.Lock()
	before := len(s.ts.Lines)
	s.ts = transcript.Apply(s.ts, transcript.TurnComplete{Speaker: s.cfg.Persona.Name})
	lines := append([]string(nil), s.ts.Lines...)
	progress := s.ts.Progress
	s.mu.Unlock()

	for _, line := range lines[before:] {
		log.TranscriptLine(line)
	}
	s.notify(TranscriptNote{Lines: lines, Progress: progress})
}

func (s *Session) applyEvent(ev any) {
	s.mu.Lock()
	s.ts = transcript.Apply(s.ts, ev)
	s.mu.Unlock()
}

func (s *Session) notify(note any) {
	select {
	case s.notes <- note:
	default:
	}
}

// Close ends the session from the user's side and waits for teardown.
func (s *Session) Close() {
	s.state.CompareAndSwap(int32(Connecting), int32(Closed))
	s.state.CompareAndSwap(int32(Open), int32(Closed))
	s.stream.Close()
	<-s.done
}

// teardown releases every acquired resource. Each release is attempted
// regardless of the others failing.
func (s *Session) teardown() {
	s.cleanup.Do(func() {
		s.capture.ClearCallback()
		s.capture.Stop()
		s.capture.Close()
		if err := s.stream.Close(); err != nil {
			log.Warnf("session: close stream: %v", err)
		}
		s.sched.Interrupt()
		if err := s.player.Close(); err != nil {
			log.Warnf("session: close speaker: %v", err)
		}
		s.audioCtx.Close()
		s.mu.Lock()
		if s.flac != nil {
			if err := s.flac.Close(); err != nil {
				log.Warnf("session: close archive: %v", err)
			}
		}
		s.mu.Unlock()
	})
}
