package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"verbal/persona"
	"verbal/transcript"
)

// Section is one scored axis of the audit.
type Section struct {
	Axis        string  `json:"axis"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Report is the full post-interview audit handed to the feedback screen.
type Report struct {
	OverallScore float64   `json:"overallScore"`
	Summary      string    `json:"summary"`
	Axes         []Section `json:"axes"`
	Tips         []string  `json:"tips"`
	Transcript   []string  `json:"transcript"`
}

// Axes scored by every audit, in report order.
var Axes = []string{"Composure", "Clarity", "Empathy", "Rule Adherence", "Accountability"}

var feedbackSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"overallScore": {Type: "NUMBER"},
		"summary":      {Type: "STRING"},
		"axes": {
			Type: "ARRAY",
			Items: &Schema{
				Type: "OBJECT",
				Properties: map[string]*Schema{
					"axis":        {Type: "STRING"},
					"score":       {Type: "NUMBER"},
					"explanation": {Type: "STRING"},
				},
				Required: []string{"axis", "score", "explanation"},
			},
		},
		"tips": {Type: "ARRAY", Items: &Schema{Type: "STRING"}},
	},
	Required: []string{"overallScore", "summary", "axes", "tips"},
}

// userWordCount counts words across the candidate's committed lines.
func userWordCount(lines []string) (userLines int, words int) {
	prefix := transcript.UserSpeaker + ":"
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		userLines++
		words += len(strings.Fields(strings.TrimPrefix(line, prefix)))
	}
	return userLines, words
}

// ZeroSignal reports whether the transcript carries too little candidate
// speech to audit.
func ZeroSignal(lines []string) bool {
	userLines, words := userWordCount(lines)
	return userLines == 0 || words < 5
}

// ZeroSignalReport is the fixed fallback shown when the candidate never
// spoke, or when the audit call itself fails.
func ZeroSignalReport(lines []string) Report {
	return Report{
		OverallScore: 0,
		Summary:      "NO SIGNAL DETECTED. The session was terminated without significant candidate input.",
		Axes: []Section{
			{Axis: "Composure", Score: 0, Explanation: "Failure to engage."},
			{Axis: "Clarity", Score: 0, Explanation: "No verbal data."},
			{Axis: "Empathy", Score: 0, Explanation: "No social interaction."},
			{Axis: "Rule Adherence", Score: 0, Explanation: "Protocol violated."},
			{Axis: "Accountability", Score: 0, Explanation: "Zero ownership."},
		},
		Tips:       []string{"Ensure mic is active.", "Answer questions directly.", "Follow protocols."},
		Transcript: lines,
	}
}

// GenerateFeedback audits the transcript. A transcript with no usable
// candidate speech short-circuits to the zero-signal report without a
// network call.
func (c *Client) GenerateFeedback(ctx context.Context, lines []string, jobTitle string, p persona.Persona) (Report, error) {
	if ZeroSignal(lines) {
		return ZeroSignalReport(lines), nil
	}

	prompt := fmt.Sprintf(`Perform a high-stakes audit of this transcript for the role of %s.
The interviewer was %s using the Vertical Interview Engine protocols.

Transcript:
%s

%s

Evaluate against industry-standard benchmarks for %s. Use the 5 axes: Composure, Clarity, Empathy, Rule Adherence, Accountability.`,
		jobTitle, p.Name, strings.Join(lines, "\n"), persona.VerticalKnowledge, jobTitle)

	raw, err := c.generate(ctx, prompt, feedbackSchema, false)
	if err != nil {
		return Report{}, err
	}

	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return Report{}, fmt.Errorf("parse feedback: %w", err)
	}
	report.Transcript = lines
	return report, nil
}
