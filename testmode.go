package main

import (
	"context"
	"fmt"
	"os"

	"verbal/audio"
	"verbal/live"
	"verbal/pcm"
	"verbal/persona"
	"verbal/review"
	"verbal/session"
)

// runTestMode drives the whole pipeline headless: a WAV file stands in
// for the microphone and a scripted stream stands in for the service.
// No network, no devices.
func runTestMode(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: verbal -test <wav-file>")
		os.Exit(1)
	}

	fakeCtx, err := audio.NewFakeContext(args[0], false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := persona.Default()
	tone := pcm.Encode(make([]float32, pcm.PlaybackRate/10))
	script := []live.Event{
		{Ready: true},
		{ModelText: "Hello, I'm " + p.Name + ". ", Audio: []string{tone.Data}},
		{ModelText: "Walk me through a system you designed.", TurnComplete: true},
		{UserText: "I designed the ingestion pipeline at my previous company."},
		{ModelText: "What was the hardest tradeoff?", TurnComplete: true},
	}
	stream := live.NewFake(script, nil)

	sess, err := session.Start(context.Background(), session.Config{
		Persona:      p,
		AudioContext: fakeCtx,
		Player:       audio.NewFakePlayer(),
		Dial: func(context.Context) (live.Stream, error) {
			return stream, nil
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	<-sess.Done()

	lines, progress := sess.Transcript()
	fmt.Printf("state:     %s\n", sess.State())
	fmt.Printf("turns:     %d\n", progress)
	fmt.Printf("dropped:   %d frames before open\n", sess.DroppedFrames())
	fmt.Printf("sent:      %d mic chunks\n", len(stream.Sent()))
	fmt.Println("transcript:")
	for _, line := range lines {
		fmt.Println("  " + line)
	}

	if review.ZeroSignal(lines) {
		report := review.ZeroSignalReport(lines)
		fmt.Printf("audit:     %s (overall %.0f)\n", report.Summary, report.OverallScore)
		return
	}
	fmt.Println("audit:     transcript has signal; run without -test for a scored audit")
}
