package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"verbal/audio"
	"verbal/log"
	"verbal/persona"
	"verbal/review"
	"verbal/session"
)

type appPhase int

const (
	phaseCasting appPhase = iota
	phaseInterview
	phaseScoring
	phaseFeedback
	phaseFailed
)

// TUI message types
type castDoneMsg struct {
	persona   persona.Persona
	inference review.Inference
	err       error
}
type sessionStartedMsg struct {
	sess *session.Session
	err  error
}
type noteMsg struct{ note any }
type notesDoneMsg struct{}
type reportMsg struct {
	report  review.Report
	callErr error
}
type tickMsg time.Time

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	liveStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	youStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	interviewer   = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	meterOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	scoreStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type appModel struct {
	cfg    appConfig
	client *review.Client

	phase         appPhase
	frame         int
	width, height int

	persona   persona.Persona
	inference review.Inference

	sess          *session.Session
	connected     bool
	level         float64
	speaking      bool
	modelSpeaking bool
	lines         []string
	progress      int

	report     review.Report
	auditErr   error
	sessionErr error
	err        error
}

func newAppModel(cfg appConfig) appModel {
	return appModel{
		cfg:    cfg,
		client: review.NewClient(cfg.apiKey),
		phase:  phaseCasting,
	}
}

func appTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(appTick(), m.castCmd())
}

// castCmd picks the interviewer, by inference or by the -persona flag.
func (m appModel) castCmd() tea.Cmd {
	cfg := m.cfg
	client := m.client
	return func() tea.Msg {
		if cfg.personaOverride != "" {
			p, ok := persona.ByName(cfg.personaOverride)
			if !ok {
				return castDoneMsg{err: fmt.Errorf("unknown interviewer %q", cfg.personaOverride)}
			}
			inf := review.Inference{
				Umbrella:    p.Focus,
				Methodology: "Interviewer's choice",
				SystemInstruction: fmt.Sprintf(
					"You are %s, %s Conduct a professional %s-level interview for the role of %s.",
					p.Name, p.Description, cfg.seniority, cfg.job),
			}
			return castDoneMsg{persona: p, inference: inf}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		p, inf, err := client.InferPersona(ctx, cfg.job, cfg.seniority, cfg.company)
		return castDoneMsg{persona: p, inference: inf, err: err}
	}
}

func (m appModel) startSessionCmd() tea.Cmd {
	cfg := m.cfg
	p := m.persona
	instruction := review.SystemInstruction(p, m.inference, cfg.questions)
	return func() tea.Msg {
		sess, err := session.Start(context.Background(), session.Config{
			APIKey:            cfg.apiKey,
			Model:             cfg.model,
			Persona:           p,
			SystemInstruction: instruction,
			DeviceName:        cfg.deviceName,
			Record:            cfg.record,
		})
		return sessionStartedMsg{sess: sess, err: err}
	}
}

// waitNote forwards the next session note into the program.
func waitNote(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		note, ok := <-sess.Notes()
		if !ok {
			return notesDoneMsg{}
		}
		return noteMsg{note: note}
	}
}

// endCmd closes the session, saves the mic archive and runs the audit.
// A failed audit call degrades to the labeled zero-signal report.
func (m appModel) endCmd() tea.Cmd {
	sess := m.sess
	cfg := m.cfg
	client := m.client
	p := m.persona
	return func() tea.Msg {
		sess.Close()
		lines, progress := sess.Transcript()
		log.InterviewEnd(progress, len(lines), sess.DroppedFrames())
		saveRecording(sess)

		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		report, err := client.GenerateFeedback(ctx, lines, cfg.job, p)
		if err != nil {
			log.Errorf("audit call failed: %v", err)
			report = review.ZeroSignalReport(lines)
			appendReport(report)
			return reportMsg{report: report, callErr: err}
		}
		appendReport(report)
		return reportMsg{report: report}
	}
}

// appendReport mirrors the audit into transcript_log.txt next to the
// utterances it scored.
func appendReport(r review.Report) {
	log.TranscriptLine(fmt.Sprintf("=== audit: overall %.0f ===", r.OverallScore))
	log.TranscriptLine(r.Summary)
	for _, axis := range r.Axes {
		log.TranscriptLine(fmt.Sprintf("%s: %.0f - %s", axis.Axis, axis.Score, axis.Explanation))
	}
	for _, tip := range r.Tips {
		log.TranscriptLine("tip: " + tip)
	}
}

func saveRecording(sess *session.Session) {
	data := sess.Recording()
	if len(data) == 0 {
		return
	}
	path := filepath.Join(log.Dir(), fmt.Sprintf("interview_%s.flac", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Errorf("save recording: %v", err)
		return
	}
	log.Infof("recording saved: %s", path)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.sess != nil && m.phase == phaseInterview {
				go m.sess.Close()
			}
			return m, tea.Quit
		case "enter":
			if m.phase == phaseInterview {
				m.phase = phaseScoring
				return m, m.endCmd()
			}
		case "q":
			if m.phase == phaseFeedback || m.phase == phaseFailed {
				return m, tea.Quit
			}
		}

	case tickMsg:
		m.frame++
		return m, appTick()

	case castDoneMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = fmt.Errorf("casting interviewer: %w", msg.err)
			return m, nil
		}
		m.persona = msg.persona
		m.inference = msg.inference
		log.InterviewStart(m.persona.Name, m.persona.Voice, m.cfg.job, string(m.cfg.seniority), m.cfg.questions)
		return m, m.startSessionCmd()

	case sessionStartedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.phase = phaseInterview
		return m, waitNote(m.sess)

	case noteMsg:
		switch note := msg.note.(type) {
		case session.ReadyNote:
			m.connected = true
		case session.LevelNote:
			m.level = m.level*0.6 + note.Level*0.4
			m.speaking = note.Speaking
		case session.ModelSpeakingNote:
			m.modelSpeaking = note.Speaking
		case session.TranscriptNote:
			m.lines = note.Lines
			m.progress = note.Progress
		case session.ClosedNote:
			m.sessionErr = note.Err
		}
		return m, waitNote(m.sess)

	case notesDoneMsg:
		// Stream ended on its own while interviewing: score what we have.
		if m.phase == phaseInterview {
			m.phase = phaseScoring
			return m, m.endCmd()
		}

	case reportMsg:
		m.report = msg.report
		m.auditErr = msg.callErr
		m.phase = phaseFeedback
	}
	return m, nil
}

func (m appModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	switch m.phase {
	case phaseCasting:
		return m.viewCasting()
	case phaseInterview:
		return m.viewInterview()
	case phaseScoring:
		return m.viewScoring()
	case phaseFeedback:
		return m.viewFeedback()
	case phaseFailed:
		return m.viewFailed()
	}
	return ""
}

func (m appModel) spinner() string {
	return spinnerFrames[m.frame%len(spinnerFrames)]
}

func (m appModel) viewCasting() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("verbal") + dimStyle.Render(" "+version) + "\n\n")
	fmt.Fprintf(&b, "  %s Casting your interviewer for %q (%s)...\n",
		m.spinner(), m.cfg.job, m.cfg.seniority)
	b.WriteString("\n  " + dimStyle.Render("ctrl+c to abort") + "\n")
	return b.String()
}

func (m appModel) viewScoring() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("verbal") + "\n\n")
	fmt.Fprintf(&b, "  %s Auditing the transcript...\n", m.spinner())
	return b.String()
}

func (m appModel) viewFailed() string {
	var b strings.Builder
	b.WriteString("\n  " + errStyle.Render("Interview failed") + "\n\n")
	fmt.Fprintf(&b, "  %v\n", m.err)
	b.WriteString("\n  " + dimStyle.Render("q to quit") + "\n")
	return b.String()
}

func meter(level float64, width int) string {
	filled := int(level * 12 * float64(width))
	if filled > width {
		filled = width
	}
	return meterOnStyle.Render(strings.Repeat("█", filled)) +
		meterOffStyle.Render(strings.Repeat("░", width-filled))
}

func progressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return meterOnStyle.Render(strings.Repeat("█", filled)) +
		meterOffStyle.Render(strings.Repeat("░", width-filled))
}

func (m appModel) viewInterview() string {
	var b strings.Builder

	header := fmt.Sprintf("%s — %s", m.persona.Name, m.persona.Focus)
	b.WriteString("\n  " + titleStyle.Render(header) + "\n")
	b.WriteString("  " + dimStyle.Render(m.inference.Methodology) + "\n\n")

	if m.connected {
		b.WriteString("  " + liveStyle.Render("● LIVE") + "\n")
	} else {
		fmt.Fprintf(&b, "  %s connecting...\n", m.spinner())
	}

	micName := m.cfg.deviceName
	if micName == "" {
		micName = "system default"
	}
	if audio.IsBluetooth(micName) {
		micName += " (BT!)"
	}
	fmt.Fprintf(&b, "  mic %s %s\n", meter(m.level, 20), dimStyle.Render(micName))
	fmt.Fprintf(&b, "  questions %s %d/%d\n", progressBar(m.progress, m.cfg.questions, 20), m.progress, m.cfg.questions)

	if m.modelSpeaking {
		fmt.Fprintf(&b, "  %s\n", interviewer.Render(m.persona.Name+" is speaking..."))
	} else if m.speaking {
		b.WriteString("  " + youStyle.Render("listening to you...") + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	wrapWidth := m.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	tail := m.lines
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	for _, line := range tail {
		style := youStyle
		if strings.HasPrefix(line, m.persona.Name+":") {
			style = interviewer
		}
		for _, wrapped := range wrapText(line, wrapWidth) {
			b.WriteString("  " + style.Render(wrapped) + "\n")
		}
	}

	b.WriteString("\n  " + dimStyle.Render("enter to end the interview and get your audit") + "\n")
	return b.String()
}

func (m appModel) viewFeedback() string {
	var b strings.Builder

	b.WriteString("\n  " + titleStyle.Render("Interview audit") + "\n\n")
	if m.auditErr != nil {
		b.WriteString("  " + warnStyle.Render("audit call failed, showing zero-signal fallback") + "\n")
		b.WriteString("  " + dimStyle.Render(m.auditErr.Error()) + "\n\n")
	}
	if m.sessionErr != nil {
		b.WriteString("  " + warnStyle.Render(fmt.Sprintf("session ended early: %v", m.sessionErr)) + "\n\n")
	}

	fmt.Fprintf(&b, "  overall %s\n\n", scoreStyle.Render(fmt.Sprintf("%.0f/100", m.report.OverallScore)))

	wrapWidth := m.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	for _, line := range wrapText(m.report.Summary, wrapWidth) {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	for _, axis := range m.report.Axes {
		fmt.Fprintf(&b, "  %-16s %s %3.0f\n", axis.Axis, progressBar(int(axis.Score), 100, 20), axis.Score)
		for _, line := range wrapText(axis.Explanation, wrapWidth-4) {
			b.WriteString("      " + dimStyle.Render(line) + "\n")
		}
	}

	if len(m.report.Tips) > 0 {
		b.WriteString("\n  " + titleStyle.Render("Tips") + "\n")
		for _, tip := range m.report.Tips {
			for i, line := range wrapText(tip, wrapWidth-4) {
				bullet := "  - "
				if i > 0 {
					bullet = "    "
				}
				b.WriteString(bullet + line + "\n")
			}
		}
	}

	b.WriteString("\n  " + dimStyle.Render("transcript saved in "+log.Dir()) + "\n")
	b.WriteString("  " + dimStyle.Render("q to quit") + "\n")
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
