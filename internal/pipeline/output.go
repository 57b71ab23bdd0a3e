package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidOutput is returned when the model produced text that is not
// valid JSON or does not match the response schema.
var ErrInvalidOutput = errors.New("invalid model output")

// Simplified is the patient-friendly rewrite of a note.
type Simplified struct {
	Summary     []string     `json:"summary"`
	Actions     []Action     `json:"actions"`
	Medications []Medication `json:"medications"`
	Glossary    []Glossary   `json:"glossary"`
}

// Action is one follow-up task for the patient.
type Action struct {
	Task string `json:"task"`
	When string `json:"when"`
	Who  string `json:"who"`
}

// Medication explains one prescribed drug.
type Medication struct {
	Name      string `json:"name"`
	Why       string `json:"why"`
	HowToTake string `json:"how_to_take"`
	Schedule  string `json:"schedule"`
	Cautions  string `json:"cautions"`
}

// Glossary maps one medical term to plain language.
type Glossary struct {
	Term  string `json:"term"`
	Plain string `json:"plain"`
}

const responseSchemaText = `{
  "type": "object",
  "required": ["summary", "actions", "medications", "glossary"],
  "properties": {
    "summary": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string"}
    },
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["task"],
        "properties": {
          "task": {"type": "string"},
          "when": {"type": "string"},
          "who": {"type": "string"}
        }
      }
    },
    "medications": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "why": {"type": "string"},
          "how_to_take": {"type": "string"},
          "schedule": {"type": "string"},
          "cautions": {"type": "string"}
        }
      }
    },
    "glossary": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["term", "plain"],
        "properties": {
          "term": {"type": "string"},
          "plain": {"type": "string"}
        }
      }
    }
  }
}`

var responseSchema = jsonschema.MustCompileString("simplified.json", responseSchemaText)

// ParseOutput strips markdown fences from raw model output, parses it
// as JSON and validates it against the response schema.
func ParseOutput(raw string) (*Simplified, error) {
	cleaned := StripFences(raw)

	var generic any
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := responseSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	var out Simplified
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return &out, nil
}

// StripFences removes a surrounding markdown code fence, with or
// without a json language tag.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	}
	if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = cleaned[:len(cleaned)-len("```")]
	}
	return strings.TrimSpace(cleaned)
}
