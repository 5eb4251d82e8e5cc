package pcm

import (
	"encoding/base64"
	"errors"
	"math"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := make([]float32, 2048)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / CaptureRate))
	}

	chunk := Encode(in)
	if chunk.MIMEType != "audio/pcm;rate=16000" {
		t.Errorf("MIMEType = %q, want audio/pcm;rate=16000", chunk.MIMEType)
	}

	raw, err := Decode(chunk.Data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	frame, err := FrameFromPCM16(raw, CaptureRate, Channels)
	if err != nil {
		t.Fatalf("FrameFromPCM16: %v", err)
	}
	if len(frame.Samples) != len(in) {
		t.Fatalf("got %d samples, want %d", len(frame.Samples), len(in))
	}
	for i := range in {
		if diff := math.Abs(float64(frame.Samples[i] - in[i])); diff > 1.0/32768 {
			t.Fatalf("sample %d: got %v, want %v (diff %v)", i, frame.Samples[i], in[i], diff)
		}
	}
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	chunk := Encode([]float32{2.0, -3.5})
	raw, err := Decode(chunk.Data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	samples := Samples(raw)
	if samples[0] < 0.99 {
		t.Errorf("positive overflow clamped to %v, want ~1", samples[0])
	}
	if samples[1] > -0.99 {
		t.Errorf("negative overflow clamped to %v, want ~-1", samples[1])
	}
}

func TestDecodeRejectsBadBase64(t *testing.T) {
	_, err := Decode("not base64!!!")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}

func TestFrameFromPCM16RejectsOddLength(t *testing.T) {
	_, err := FrameFromPCM16([]byte{0, 0, 0}, PlaybackRate, 1)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}

func TestFrameDuration(t *testing.T) {
	frame := Frame{Samples: make([]float32, PlaybackRate/2), Rate: PlaybackRate, Channels: 1}
	if d := frame.Duration(); d != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", d)
	}
}

func TestFramePCM16RoundTrip(t *testing.T) {
	frame := Frame{Samples: []float32{0, 0.5, -0.5, 1, -1}, Rate: PlaybackRate, Channels: 1}
	back := Samples(frame.PCM16())
	for i, s := range frame.Samples {
		if diff := math.Abs(float64(back[i] - s)); diff > 1.0/32768 {
			t.Errorf("sample %d: got %v, want %v", i, back[i], s)
		}
	}
}

func TestMeanAmplitude(t *testing.T) {
	if got := MeanAmplitude(nil); got != 0 {
		t.Errorf("empty input: got %v, want 0", got)
	}
	if got := MeanAmplitude([]float32{0.5, -0.5}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("got %v, want 0.5", got)
	}
}

func TestDecodeIsPlainBase64(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	got, err := Decode(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("got %v, want %v", got, raw)
	}
}
