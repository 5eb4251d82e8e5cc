// Package transcript reconciles the two partial transcription streams
// (candidate speech-to-text and interviewer speech-to-text) into one
// ordered conversation log.
//
// The assembler is a pure reducer: Apply never mutates its input, so the
// session's event loop can hold the only live State and tests need no
// devices or network.
package transcript

import "strings"

// UserSpeaker labels the candidate's lines in the log.
const UserSpeaker = "You"

// State carries the two in-progress buffers and the committed log.
type State struct {
	UserBuffer  string
	ModelBuffer string
	Lines       []string
	Progress    int // completed interviewer turns
}

// Events. The session feeds these in arrival order; only TurnComplete
// commits anything.
type (
	AppendUser   struct{ Text string }
	AppendModel  struct{ Text string }
	TurnComplete struct{ Speaker string } // interviewer's display name
)

// Apply returns the state after one event. Unknown events are ignored.
func Apply(s State, ev any) State {
	switch ev := ev.(type) {
	case AppendUser:
		s.UserBuffer += ev.Text
	case AppendModel:
		s.ModelBuffer += ev.Text
	case TurnComplete:
		s = commit(s, ev.Speaker)
	}
	return s
}

// commit flushes both buffers into the log. The user's utterance always
// precedes the interviewer's within one turn, regardless of the order
// the partial fragments arrived in. Buffers reset unconditionally;
// committing the same turn twice is impossible by construction.
func commit(s State, speaker string) State {
	user := strings.TrimSpace(s.UserBuffer)
	model := strings.TrimSpace(s.ModelBuffer)

	lines := make([]string, len(s.Lines), len(s.Lines)+2)
	copy(lines, s.Lines)
	if user != "" {
		lines = append(lines, UserSpeaker+": "+user)
	}
	if model != "" {
		lines = append(lines, speaker+": "+model)
		s.Progress++
	}
	s.Lines = lines
	s.UserBuffer = ""
	s.ModelBuffer = ""
	return s
}
