// Package pcm converts between normalized float samples and the base64
// PCM16 little-endian chunks carried over the live session.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	CaptureRate   = 16000
	PlaybackRate  = 24000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096 // samples per capture frame
)

// MIMEType returns the wire tag for raw PCM16 at the given rate.
func MIMEType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// Chunk is an encoded audio payload ready for the session wire.
type Chunk struct {
	Data     string // base64 PCM16LE
	MIMEType string
}

// DecodeError reports a malformed chunk. Bad chunks are dropped by the
// playback path; they never terminate a session.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode audio chunk: %s: %v", e.Reason, e.Err)
	}
	return "decode audio chunk: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode packs normalized samples into a capture-rate wire chunk.
// Samples outside [-1, 1] are clamped.
func Encode(samples []float32) Chunk {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	return Chunk{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MIMEType: MIMEType(CaptureRate),
	}
}

// Decode reverses the transport encoding only; the result is raw PCM16LE.
func Decode(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Err: err}
	}
	return raw, nil
}

// Frame is a playable buffer of normalized samples at a known rate.
type Frame struct {
	Samples  []float32
	Rate     int
	Channels int
}

// FrameFromPCM16 interprets raw bytes as interleaved PCM16LE.
func FrameFromPCM16(raw []byte, rate, channels int) (Frame, error) {
	stride := 2 * channels
	if stride <= 0 || rate <= 0 {
		return Frame{}, &DecodeError{Reason: fmt.Sprintf("invalid format rate=%d channels=%d", rate, channels)}
	}
	if len(raw)%stride != 0 {
		return Frame{}, &DecodeError{Reason: fmt.Sprintf("length %d is not a multiple of sample stride %d", len(raw), stride)}
	}
	return Frame{Samples: Samples(raw), Rate: rate, Channels: channels}, nil
}

// Samples converts raw PCM16LE bytes to normalized floats. A trailing
// odd byte is ignored.
func Samples(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i] = float32(v) / 32768
	}
	return out
}

// PCM16 packs the frame back into raw bytes for a device sink.
func (f Frame) PCM16() []byte {
	raw := make([]byte, len(f.Samples)*2)
	for i, s := range f.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	return raw
}

func (f Frame) Duration() time.Duration {
	if f.Rate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := len(f.Samples) / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.Rate)
}

// MeanAmplitude is the average absolute sample value, used as the
// user-speaking activity signal.
func MeanAmplitude(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += math.Abs(float64(s))
	}
	return sum / float64(len(samples))
}
