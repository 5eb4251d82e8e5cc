package transcript

import (
	"slices"
	"testing"
)

func apply(s State, evs ...any) State {
	for _, ev := range evs {
		s = Apply(s, ev)
	}
	return s
}

func TestTurnCommitOrder(t *testing.T) {
	// Model fragments arriving first do not change commit order.
	s := apply(State{},
		AppendModel{"hi "},
		AppendModel{"there"},
		AppendUser{"hello"},
		TurnComplete{"Claire"},
	)

	want := []string{"You: hello", "Claire: hi there"}
	if !slices.Equal(s.Lines, want) {
		t.Errorf("Lines = %v, want %v", s.Lines, want)
	}
	if s.Progress != 1 {
		t.Errorf("Progress = %d, want 1", s.Progress)
	}
}

func TestBuffersResetAfterCommit(t *testing.T) {
	s := apply(State{}, AppendUser{"one"}, AppendModel{"two"}, TurnComplete{"Sarah"})
	if s.UserBuffer != "" || s.ModelBuffer != "" {
		t.Errorf("buffers not reset: user=%q model=%q", s.UserBuffer, s.ModelBuffer)
	}
}

func TestEmptyTurnCommitsNothing(t *testing.T) {
	s := apply(State{}, TurnComplete{"David"})
	if len(s.Lines) != 0 {
		t.Errorf("Lines = %v, want empty", s.Lines)
	}
	if s.Progress != 0 {
		t.Errorf("Progress = %d, want 0", s.Progress)
	}
}

func TestWhitespaceOnlyBuffersCommitNothing(t *testing.T) {
	s := apply(State{}, AppendUser{"  "}, AppendModel{"\n"}, TurnComplete{"James"})
	if len(s.Lines) != 0 {
		t.Errorf("Lines = %v, want empty", s.Lines)
	}
	// Buffers still reset even though nothing was appended.
	if s.UserBuffer != "" || s.ModelBuffer != "" {
		t.Errorf("buffers not reset: user=%q model=%q", s.UserBuffer, s.ModelBuffer)
	}
}

func TestUserOnlyTurnDoesNotAdvanceProgress(t *testing.T) {
	s := apply(State{}, AppendUser{"just me"}, TurnComplete{"Thomas"})
	want := []string{"You: just me"}
	if !slices.Equal(s.Lines, want) {
		t.Errorf("Lines = %v, want %v", s.Lines, want)
	}
	if s.Progress != 0 {
		t.Errorf("Progress = %d, want 0", s.Progress)
	}
}

func TestFragmentsAccumulateAcrossEvents(t *testing.T) {
	s := apply(State{},
		AppendUser{"I worked "},
		AppendUser{"on streaming"},
		TurnComplete{"Claire"},
		AppendUser{"second turn"},
		AppendModel{"noted"},
		TurnComplete{"Claire"},
	)
	want := []string{"You: I worked on streaming", "You: second turn", "Claire: noted"}
	if !slices.Equal(s.Lines, want) {
		t.Errorf("Lines = %v, want %v", s.Lines, want)
	}
	if s.Progress != 1 {
		t.Errorf("Progress = %d, want 1", s.Progress)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	base := apply(State{}, AppendUser{"a"}, TurnComplete{"Sarah"})
	snapshot := slices.Clone(base.Lines)

	_ = apply(base, AppendUser{"b"}, TurnComplete{"Sarah"})
	_ = apply(base, AppendModel{"c"}, TurnComplete{"Sarah"})

	if !slices.Equal(base.Lines, snapshot) {
		t.Errorf("input state mutated: %v, want %v", base.Lines, snapshot)
	}
}
