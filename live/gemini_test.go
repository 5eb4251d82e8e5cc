package live

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupMessageShape(t *testing.T) {
	msg := setupMessage{Setup: setupPayload{
		Model: "models/" + DefaultModel,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: "Kore"}},
			},
		},
		SystemInstruction: &content{Parts: []part{{Text: "You are Claire."}}},
	}}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	for _, want := range []string{
		`"setup":`,
		`"model":"models/` + DefaultModel + `"`,
		`"responseModalities":["AUDIO"]`,
		`"prebuiltVoiceConfig":{"voiceName":"Kore"}`,
		`"systemInstruction":{"parts":[{"text":"You are Claire."}]}`,
		`"inputAudioTranscription":{}`,
		`"outputAudioTranscription":{}`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("setup message missing %s\ngot: %s", want, got)
		}
	}
}

func TestRealtimeMessageShape(t *testing.T) {
	msg := realtimeMessage{RealtimeInput: realtimeInput{
		MediaChunks: []inlineData{{MIMEType: "audio/pcm;rate=16000", Data: "AAAA"}},
	}}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"realtimeInput":{"mediaChunks":[{"mimeType":"audio/pcm;rate=16000","data":"AAAA"}]}}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestParseSetupComplete(t *testing.T) {
	ev, ok, err := parseServerMessage([]byte(`{"setupComplete":{}}`))
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !ev.Ready {
		t.Error("Ready not set")
	}
}

func TestParseServerContent(t *testing.T) {
	raw := `{"serverContent":{
		"modelTurn":{"parts":[
			{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"first"}},
			{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"second"}}
		]},
		"outputTranscription":{"text":"Tell me about"},
		"inputTranscription":{"text":"I was"},
		"interrupted":true,
		"turnComplete":true
	}}`

	ev, ok, err := parseServerMessage([]byte(raw))
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if ev.ModelText != "Tell me about" {
		t.Errorf("ModelText = %q", ev.ModelText)
	}
	if ev.UserText != "I was" {
		t.Errorf("UserText = %q", ev.UserText)
	}
	if len(ev.Audio) != 2 || ev.Audio[0] != "first" || ev.Audio[1] != "second" {
		t.Errorf("Audio = %v, want [first second] in order", ev.Audio)
	}
	if !ev.Interrupted || !ev.TurnComplete {
		t.Errorf("flags: interrupted=%v turnComplete=%v", ev.Interrupted, ev.TurnComplete)
	}
}

func TestParseIgnoresUnknownMessages(t *testing.T) {
	_, ok, err := parseServerMessage([]byte(`{"goAway":{"timeLeft":"10s"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("goAway should carry no event")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, _, err := parseServerMessage([]byte(`{"serverContent":`))
	if err == nil {
		t.Error("expected error for truncated JSON")
	}
}
