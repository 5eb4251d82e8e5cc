package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"nhooyr.io/websocket"

	"verbal/pcm"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Outbound wire messages.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  struct{}         `json:"inputAudioTranscription"`
	OutputAudioTranscription struct{}         `json:"outputAudioTranscription"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []inlineData `json:"mediaChunks"`
}

// Inbound wire messages.

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete"`
	ServerContent *serverContent `json:"serverContent"`
	GoAway        *struct{}      `json:"goAway"`
}

type serverContent struct {
	ModelTurn           *content              `json:"modelTurn"`
	TurnComplete        bool                  `json:"turnComplete"`
	Interrupted         bool                  `json:"interrupted"`
	InputTranscription  *transcriptionPayload `json:"inputTranscription"`
	OutputTranscription *transcriptionPayload `json:"outputTranscription"`
}

type transcriptionPayload struct {
	Text string `json:"text"`
}

type geminiStream struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects, sends the session setup and returns a Stream once the
// transport is up. The Ready event arrives later, when the server
// acknowledges the setup.
func Dial(ctx context.Context, cfg Config) (Stream, error) {
	raw, err := dialGemini(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newConn(raw), nil
}

func dialGemini(ctx context.Context, cfg Config) (rawStream, error) {
	endpoint, err := url.Parse(liveEndpoint)
	if err != nil {
		return nil, err
	}
	q := endpoint.Query()
	q.Set("key", cfg.APIKey)
	endpoint.RawQuery = q.Encode()

	streamCtx, cancel := context.WithCancel(ctx)
	conn, _, err := websocket.Dial(streamCtx, endpoint.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dial live session: %w", err)
	}
	// Audio chunks are small but arrive in bursts.
	conn.SetReadLimit(1 << 22)

	g := &geminiStream{conn: conn, ctx: streamCtx, cancel: cancel}
	if err := g.sendSetup(cfg); err != nil {
		g.Close()
		return nil, fmt.Errorf("send session setup: %w", err)
	}
	return g, nil
}

func (g *geminiStream) sendSetup(cfg Config) error {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	msg := setupMessage{Setup: setupPayload{
		Model: model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: cfg.Voice}},
			},
		},
	}}
	if cfg.SystemInstruction != "" {
		msg.Setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return g.conn.Write(g.ctx, websocket.MessageText, data)
}

func (g *geminiStream) Send(chunk pcm.Chunk) error {
	msg := realtimeMessage{RealtimeInput: realtimeInput{
		MediaChunks: []inlineData{{MIMEType: chunk.MIMEType, Data: chunk.Data}},
	}}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return g.conn.Write(g.ctx, websocket.MessageText, data)
}

func (g *geminiStream) Recv() (Event, error) {
	for {
		_, data, err := g.conn.Read(g.ctx)
		if err != nil {
			return Event{}, err
		}
		ev, ok, err := parseServerMessage(data)
		if err != nil {
			return Event{}, err
		}
		if ok {
			return ev, nil
		}
	}
}

// parseServerMessage flattens one wire message. ok is false for
// messages that carry nothing the session cares about.
func parseServerMessage(data []byte) (Event, bool, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, false, fmt.Errorf("parse server message: %w", err)
	}

	if msg.SetupComplete != nil {
		return Event{Ready: true}, true, nil
	}
	sc := msg.ServerContent
	if sc == nil {
		return Event{}, false, nil
	}

	ev := Event{
		Interrupted:  sc.Interrupted,
		TurnComplete: sc.TurnComplete,
	}
	if sc.InputTranscription != nil {
		ev.UserText = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		ev.ModelText = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				ev.Audio = append(ev.Audio, p.InlineData.Data)
			}
		}
	}
	return ev, true, nil
}

func (g *geminiStream) Close() error {
	g.cancel()
	return g.conn.Close(websocket.StatusNormalClosure, "")
}
