// Package encoder archives the candidate's microphone audio as FLAC
// when recording is enabled.
package encoder

import "verbal/pcm"

const (
	SampleRate    = pcm.CaptureRate
	Channels      = pcm.Channels
	BitsPerSample = pcm.BitsPerSample
	BlockSize     = pcm.BlockSize
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}
