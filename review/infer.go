package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"verbal/persona"
)

// Inference is the classification result that casts the interviewer and
// writes the operational prompt for the voice session.
type Inference struct {
	Umbrella          string   `json:"umbrella"`
	Methodology       string   `json:"methodology"`
	SelectedPersona   string   `json:"selectedPersona"`
	IndustryInference string   `json:"industryInference"`
	PressureScore     float64  `json:"pressureScore"`
	FocusPillars      []string `json:"focusPillars"`
	SystemInstruction string   `json:"generatedSystemInstruction"`
}

var inferenceSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"umbrella":          {Type: "STRING"},
		"methodology":       {Type: "STRING"},
		"selectedPersona":   {Type: "STRING"},
		"industryInference": {Type: "STRING"},
		"pressureScore":     {Type: "NUMBER"},
		"focusPillars":      {Type: "ARRAY", Items: &Schema{Type: "STRING"}},
		"generatedSystemInstruction": {
			Type:        "STRING",
			Description: "The full operational prompt for the Voice AI interviewer.",
		},
	},
	Required: []string{
		"umbrella", "methodology", "selectedPersona", "industryInference",
		"pressureScore", "focusPillars", "generatedSystemInstruction",
	},
}

// InferPersona classifies the role and picks the interviewer. Falls back
// to the default interviewer when the model names someone off-roster.
func (c *Client) InferPersona(ctx context.Context, jobTitle string, seniority persona.Seniority, companyURL string) (persona.Persona, Inference, error) {
	company := companyURL
	if company == "" {
		company = "Not specified"
	}

	var library strings.Builder
	for i, p := range persona.Roster {
		if i > 0 {
			library.WriteString(", ")
		}
		fmt.Fprintf(&library, `{"id":%q,"name":%q,"focus":%q}`, p.ID, p.Name, p.Focus)
	}

	prompt := fmt.Sprintf(`Role: You are the "Verbal" Intelligence Director.
Goal: Implement THE VERTICAL INTERVIEW ENGINE architecture to classify the role and cast the interviewer.

INPUTS:
Job Title: %s
Seniority: %s
Company: %s

ARCHITECTURE RULES:
1. BOX 1 (CLASSIFICATION): Categorize the role into one of: Technical & Systems, Human & Social, Commercial & Growth, Strategic & Governance, Operational & Tactical.
2. BOX 2 (METHODOLOGY): Assign the corresponding Framework: First Principles, STAR/Behavioral, Revenue Diagnostic, Case Study, or Stress-Simulation.
3. BOX 3 (PERSONA): Select the specific Interviewer from the library based on their lens:
   - Sarah: Alignment/EQ (Human & Social)
   - Claire: Forensic/Logic (Technical & Systems)
   - James: ROI/Economics (Commercial & Growth)
   - David: Resilience/Skeptic (Operational & Tactical)
   - Thomas: Strategy/Scale (Strategic & Governance)

Persona Library: [%s]

Return a JSON object containing the classification details and the comprehensive system instruction for the Voice AI. Ensure the instruction explicitly tells the AI which Methodology to use.`,
		jobTitle, seniority, company, library.String())

	raw, err := c.generate(ctx, prompt, inferenceSchema, true)
	if err != nil {
		return persona.Persona{}, Inference{}, err
	}

	var inf Inference
	if err := json.Unmarshal(raw, &inf); err != nil {
		return persona.Persona{}, Inference{}, fmt.Errorf("parse inference: %w", err)
	}

	p, ok := persona.ByName(inf.SelectedPersona)
	if !ok {
		p = persona.Default()
	}
	return p, inf, nil
}

// SystemInstruction assembles the operational prompt the live session is
// configured with.
func SystemInstruction(p persona.Persona, inf Inference, questionCount int) string {
	return fmt.Sprintf(`CRITICAL OPERATIONAL DIRECTIVE:
Interviewer: %s
Focus Lens: %s
Vertical Umbrella: %s
Core Methodology: %s

ROLE SPECIFIC BEHAVIOR:
%s

SESSION RULES:
- Conduct session for exactly %d questions.
- Greet the user and ask the first question immediately.`,
		p.Name, p.Focus, inf.Umbrella, inf.Methodology, inf.SystemInstruction, questionCount)
}
