// Package prompts assembles the system and user prompts sent to a
// language model to rewrite a sectionized discharge note.
package prompts

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/carenotes/carenotes/internal/sectionizer"
)

// SystemPrompt frames the rewrite task and its guardrails.
const SystemPrompt = `You are a medical communication specialist. Simplify medical discharge notes into patient-friendly language at 6th-8th grade reading level.

Rules:
- Use ONLY information from the provided note
- Use simple, clear sentences (15-20 words max)
- Replace medical jargon with everyday language
- If information is missing, use "not specified"
- Be empathetic and reassuring`

// userTemplateText lays out the seven downstream sections and the
// required response shape.
const userTemplateText = `Simplify this medical discharge note for a patient. Provide a clear summary, actions needed, medications explained, and a glossary of medical terms.

Medical Note:

[Diagnoses]
{{.Diagnoses}}

[Hospital Course]
{{.HospitalCourse}}

[Discharge Medications]
{{.DischargeMedications}}

[Follow-up]
{{.FollowUp}}

[Allergies]
{{.Allergies}}

[Pending Tests]
{{.PendingTests}}

[Diet/Activity]
{{.DietActivity}}

Provide your response in this JSON format:
{
  "summary": ["bullet 1", "bullet 2", "bullet 3"],
  "actions": [{"task": "...", "when": "...", "who": "..."}],
  "medications": [{"name": "...", "why": "...", "how_to_take": "...", "schedule": "...", "cautions": "..."}],
  "glossary": [{"term": "...", "plain": "..."}]
}`

// notSpecified is substituted for sections the note does not carry.
const notSpecified = "not specified"

var userTemplate = template.Must(template.New("user").Parse(userTemplateText))

// downstreamSections are the section ids the user template consumes, in
// template order.
var downstreamSections = []string{
	sectionizer.SectionDischargeDiagnosis,
	sectionizer.SectionHospitalCourse,
	sectionizer.SectionDischargeMedications,
	sectionizer.SectionFollowUp,
	sectionizer.SectionAllergies,
	sectionizer.SectionPendingTests,
	sectionizer.SectionDietActivity,
}

// The user template must consume exactly one variable per downstream
// section; a drifted template would silently drop note content.
func init() {
	if vars := ExtractVariables(userTemplateText); len(vars) != len(downstreamSections) {
		panic(fmt.Sprintf("user template consumes %d variables, want %d", len(vars), len(downstreamSections)))
	}
}

// Bundle is an assembled prompt pair plus the hash of the templates
// that produced it, recorded alongside outputs for change detection.
type Bundle struct {
	System       string
	User         string
	TemplateHash string
}

// Assembler renders prompt bundles from section maps.
type Assembler struct {
	// MaxChars bounds the rendered user prompt. Zero means unlimited.
	// When the rendered prompt exceeds the bound, section bodies are
	// capped to a common length so that only the longest sections lose
	// text.
	MaxChars int
}

// NewAssembler creates an assembler with the given user-prompt bound.
func NewAssembler(maxChars int) *Assembler {
	return &Assembler{MaxChars: maxChars}
}

type templateData struct {
	Diagnoses            string
	HospitalCourse       string
	DischargeMedications string
	FollowUp             string
	Allergies            string
	PendingTests         string
	DietActivity         string
}

// Assemble renders the prompt bundle for a sectionized note. Sections
// the note does not carry render as "not specified".
func (a *Assembler) Assemble(sections sectionizer.SectionMap) (*Bundle, error) {
	values := make(map[string]string, len(downstreamSections))
	for _, id := range downstreamSections {
		v := strings.TrimSpace(sections[id])
		if v == "" {
			v = notSpecified
		}
		values[id] = v
	}

	user, err := render(values)
	if err != nil {
		return nil, err
	}

	if a.MaxChars > 0 && len(user) > a.MaxChars {
		overhead := len(user)
		for _, v := range values {
			overhead -= len(v)
		}
		capSections(values, a.MaxChars-overhead)
		user, err = render(values)
		if err != nil {
			return nil, err
		}
	}

	return &Bundle{
		System:       SystemPrompt,
		User:         user,
		TemplateHash: TemplateHash(),
	}, nil
}

func render(values map[string]string) (string, error) {
	data := templateData{
		Diagnoses:            values[sectionizer.SectionDischargeDiagnosis],
		HospitalCourse:       values[sectionizer.SectionHospitalCourse],
		DischargeMedications: values[sectionizer.SectionDischargeMedications],
		FollowUp:             values[sectionizer.SectionFollowUp],
		Allergies:            values[sectionizer.SectionAllergies],
		PendingTests:         values[sectionizer.SectionPendingTests],
		DietActivity:         values[sectionizer.SectionDietActivity],
	}

	var sb strings.Builder
	if err := userTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return sb.String(), nil
}

// capSections truncates section values to the largest common cap that
// keeps their total length within budget. Sections shorter than the cap
// are untouched, so the longest sections absorb the whole cut.
func capSections(values map[string]string, budget int) {
	if budget < 0 {
		budget = 0
	}

	lengths := make([]int, 0, len(values))
	for _, v := range values {
		lengths = append(lengths, len(v))
	}
	sort.Ints(lengths)

	total := 0
	for _, l := range lengths {
		total += l
	}
	if total <= budget {
		return
	}

	// Walk the sorted lengths to find the cap: below it every section
	// fits whole, above it the remaining sections split the leftover
	// budget evenly.
	limit := 0
	used := 0
	for i, l := range lengths {
		remaining := len(lengths) - i
		if used+l*remaining <= budget {
			used += l
			continue
		}
		limit = (budget - used) / remaining
		break
	}

	for id, v := range values {
		if len(v) > limit {
			values[id] = strings.TrimSpace(v[:limit])
		}
	}
}

// TemplateHash returns the hash of the current prompt templates.
func TemplateHash() string {
	return HashText(SystemPrompt + "\n" + userTemplateText)
}
