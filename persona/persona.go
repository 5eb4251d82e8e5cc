// Package persona holds the static interviewer roster and the interview
// protocol knowledge shared by the classification and live stages.
package persona

import "strings"

// Seniority of the role being interviewed for.
type Seniority string

const (
	Entry     Seniority = "Entry"
	Mid       Seniority = "Mid"
	Senior    Seniority = "Senior"
	Executive Seniority = "Executive"
)

// Seniorities in display order.
var Seniorities = []Seniority{Entry, Mid, Senior, Executive}

// ParseSeniority accepts any case. Unknown input falls back to Mid.
func ParseSeniority(s string) Seniority {
	for _, level := range Seniorities {
		if strings.EqualFold(s, string(level)) {
			return level
		}
	}
	return Mid
}

// Persona is one interviewer profile. Voice names the prebuilt speech
// voice the live session speaks with.
type Persona struct {
	ID          string
	Name        string
	Focus       string
	Description string
	Traits      []string
	Voice       string
}

var Roster = []Persona{
	{
		ID:          "sarah",
		Name:        "Sarah",
		Focus:       "Alignment & EQ",
		Description: "Alignment Specialist: Evaluates cultural ecosystem fit and situational empathy.",
		Traits:      []string{"Empathetic", "Insightful", "Values-driven"},
		Voice:       "Zephyr",
	},
	{
		ID:          "claire",
		Name:        "Claire",
		Focus:       "Forensic Logic",
		Description: "Technical Auditor: Clinical tester of mastery and logical derivation.",
		Traits:      []string{"Precise", "Objective", "Rigorous"},
		Voice:       "Kore",
	},
	{
		ID:          "james",
		Name:        "James",
		Focus:       "Performance & ROI",
		Description: "Commercial Lead: Audits unit economics, growth metrics, and SPICED logic.",
		Traits:      []string{"Dynamic", "Results-focused", "Sharp"},
		Voice:       "Fenrir",
	},
	{
		ID:          "david",
		Name:        "David",
		Focus:       "Resilience & Defense",
		Description: "Operational Skeptic: Tests composure and adherence to protocols under pressure.",
		Traits:      []string{"Direct", "Skeptical", "Composed"},
		Voice:       "Puck",
	},
	{
		ID:          "thomas",
		Name:        "Thomas",
		Focus:       "Vision & Scale",
		Description: "Strategic Executive: Focuses on long-term impact and resource scaling.",
		Traits:      []string{"Visionary", "Broad-thinking", "Patient"},
		Voice:       "Charon",
	},
}

// ByName finds a roster entry case-insensitively. The second return is
// false when no such interviewer exists.
func ByName(name string) (Persona, bool) {
	for _, p := range Roster {
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.ID, name) {
			return p, true
		}
	}
	return Persona{}, false
}

// Default is the interviewer used when classification fails.
func Default() Persona {
	p, _ := ByName("claire")
	return p
}

// VerticalKnowledge is injected verbatim into the classification prompt
// so the model maps a job title onto an interviewer and a methodology.
const VerticalKnowledge = `
VERTICAL INTERVIEW ENGINE PROTOCOLS:

# 1. CLASSIFICATION UMBRELLAS
- TECHNICAL & SYSTEMS: Hard science, code, engineering. (Method: First Principles)
- HUMAN & SOCIAL: Empathy, interpersonal, education. (Method: STAR/Behavioral)
- COMMERCIAL & GROWTH: Revenue, persuasions, unit economics. (Method: Revenue Diagnostic)
- STRATEGIC & GOVERNANCE: High-level risk, law, scale. (Method: Case Study)
- OPERATIONAL & TACTICAL: Execution, safety, output. (Method: Stress-Simulation)

# 2. METHODOLOGY EXECUTION
- FIRST PRINCIPLES: Ignore experience; test the "Why" and logical derivation from zero.
- STAR/BEHAVIORAL: Hunt for past evidence of situational EQ and teamwork.
- REVENUE DIAGNOSTIC: Audit KPIs, ROI, and SPICED (Pain/Impact/Decision) logic.
- CASE STUDY: Evaluate multi-step logic and risk assessment through business scenarios.
- STRESS-SIMULATION: Present an active crisis; prioritize speed and protocol over storytelling.

# 3. INTERVIEWER LENSES
- SARAH: Focus on "Alignment." Use soft transitions.
- CLAIRE: Focus on "Forensic." Ask for exact processes.
- JAMES: Focus on "ROI." Drill down into numbers.
- DAVID: Focus on "Resilience." Challenge decisions directly.
- THOMAS: Focus on "Strategy." Ask about 3-year outcomes.
`
